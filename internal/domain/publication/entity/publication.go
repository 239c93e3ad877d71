package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
)

// PublicationStatus represents the current status of a publication
type PublicationStatus string

const (
	PublicationStatusDraft     PublicationStatus = "brouillon"
	PublicationStatusScheduled PublicationStatus = "programme"
	PublicationStatusPublished PublicationStatus = "publie"
	PublicationStatusError     PublicationStatus = "echec"
	PublicationStatusCancelled PublicationStatus = "supprime"
)

// Statuses lists every known status in lifecycle order
var Statuses = []PublicationStatus{
	PublicationStatusDraft,
	PublicationStatusScheduled,
	PublicationStatusPublished,
	PublicationStatusError,
	PublicationStatusCancelled,
}

// ParseStatus parses a status string, case-insensitively
func ParseStatus(s string) (PublicationStatus, error) {
	st := PublicationStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Parameters holds platform-specific publication settings
type Parameters struct {
	Message string `json:"message,omitempty"`
}

// Platform is the embedded platform reference of a publication. Some
// endpoints send only the platform name.
type Platform struct {
	ID  common.ID `json:"id,omitempty"`
	Nom string    `json:"nom"`
}

// UnmarshalJSON accepts either an object or a bare platform name
func (p *Platform) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Platform{Nom: name}
		return nil
	}
	type plain Platform
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Platform(v)
	return nil
}

// Publication is a scheduled or executed act of posting a content to an
// external platform
type Publication struct {
	ID           common.ID         `json:"id"`
	Status       PublicationStatus `json:"statut"`
	Title        string            `json:"titre_publication"`
	Message      string            `json:"message,omitempty"`
	Parameters   *Parameters       `json:"parametres_publication,omitempty"`
	ContentID    common.ID         `json:"id_contenu,omitempty"`
	Platform     *Platform         `json:"plateforme,omitempty"`
	PlatformID   common.ID         `json:"id_plateforme,omitempty"`
	CreatedAt    time.Time         `json:"date_creation"`
	UpdatedAt    *time.Time        `json:"date_modification,omitempty"`
	ScheduledAt  *time.Time        `json:"date_programmee,omitempty"`
	PublishedAt  *time.Time        `json:"date_publication,omitempty"`
	ErrorMessage string            `json:"message_erreur,omitempty"`
	Views        int64             `json:"nombre_vues"`
	Likes        int64             `json:"nombre_likes"`
	Shares       int64             `json:"nombre_partages"`
}

// DisplayMessage returns the message, falling back to the platform parameters
func (p *Publication) DisplayMessage() string {
	if p.Message != "" {
		return p.Message
	}
	if p.Parameters != nil {
		return p.Parameters.Message
	}
	return ""
}

// PlatformName returns the target platform name when embedded
func (p *Publication) PlatformName() string {
	if p.Platform == nil {
		return ""
	}
	return p.Platform.Nom
}

// LastModified returns the modification date, or the creation date when the
// publication was never modified
func (p *Publication) LastModified() time.Time {
	if p.UpdatedAt != nil && !p.UpdatedAt.IsZero() {
		return *p.UpdatedAt
	}
	return p.CreatedAt
}

// CanPublishNow returns true if "publish now" is offered for the publication
func (p *Publication) CanPublishNow() bool {
	return p.Status == PublicationStatusDraft
}

// CanReschedule returns true if the publication can be rescheduled
func (p *Publication) CanReschedule() bool {
	return p.Status == PublicationStatusScheduled
}

// CanSchedule returns true if a date can be set: drafts get scheduled,
// scheduled publications get rescheduled
func (p *Publication) CanSchedule() bool {
	return p.Status == PublicationStatusDraft || p.Status == PublicationStatusScheduled
}

// CanCancel returns true if the publication can be cancelled
func (p *Publication) CanCancel() bool {
	return p.Status == PublicationStatusScheduled
}

// IsScheduledBetween reports whether the publication is scheduled within
// [from, to]
func (p *Publication) IsScheduledBetween(from, to time.Time) bool {
	if p.Status != PublicationStatusScheduled || p.ScheduledAt == nil {
		return false
	}
	at := *p.ScheduledAt
	return !at.Before(from) && !at.After(to)
}
