package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
)

// Connexion is the OAuth connection of the current user to a platform
type Connexion struct {
	ID             common.ID  `json:"id"`
	PlatformID     common.ID  `json:"id_plateforme"`
	PlatformName   string     `json:"nom_plateforme"`
	Username       string     `json:"username,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	ConnectedAt    *time.Time `json:"date_connexion,omitempty"`
}

// TokenValid reports whether the access token is still usable at now
func (c *Connexion) TokenValid(now time.Time) bool {
	return c.TokenExpiresAt != nil && c.TokenExpiresAt.After(now)
}

// Status is the connection state of one platform for the current user
type Status struct {
	Platform    string     `json:"plateforme"`
	Connected   bool       `json:"connecte"`
	TokenValid  bool       `json:"tokenValide"`
	ExpiresAt   *time.Time `json:"expireLe,omitempty"`
	Remaining   string     `json:"tempsRestant,omitempty"`
	Username    string     `json:"username,omitempty"`
	ConnexionID common.ID  `json:"idConnexion,omitempty"`
}

// StatusOf derives the connection status of the named platform. The name
// is matched case-insensitively; the first matching connection wins.
func StatusOf(name string, conns []Connexion, now time.Time) Status {
	st := Status{Platform: name}

	for i := range conns {
		c := &conns[i]
		if !strings.EqualFold(strings.TrimSpace(c.PlatformName), strings.TrimSpace(name)) {
			continue
		}

		st.Connected = true
		st.TokenValid = c.TokenValid(now)
		st.Username = c.Username
		st.ConnexionID = c.ID
		if c.TokenExpiresAt != nil {
			exp := *c.TokenExpiresAt
			st.ExpiresAt = &exp
			st.Remaining = FormatRemaining(exp.Sub(now))
		}
		return st
	}

	return st
}

// FormatRemaining renders a token lifetime for display
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expiré"
	}

	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dj %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "moins d'une minute"
	}
}

// TokenCheck is the answer of GET /plateformes/:id/check-token
type TokenCheck struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Message   string     `json:"message,omitempty"`
}
