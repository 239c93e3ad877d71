package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Hour, "expiré"},
		{0, "expiré"},
		{30 * time.Second, "moins d'une minute"},
		{5 * time.Minute, "5m"},
		{3*time.Hour + 12*time.Minute, "3h 12m"},
		{2*24*time.Hour + 5*time.Hour + 59*time.Minute, "2j 5h"},
		{24 * time.Hour, "1j 0h"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRemaining(tt.d))
		})
	}
}

func TestStatusOf(t *testing.T) {
	exp := now.Add(90 * time.Minute)
	past := now.Add(-time.Minute)
	conns := []Connexion{
		{ID: "1", PlatformName: "LinkedIn", TokenExpiresAt: &past},
		{ID: "2", PlatformName: "x", Username: "@studio", TokenExpiresAt: &exp},
	}

	st := StatusOf("X", conns, now)
	assert.True(t, st.Connected)
	assert.True(t, st.TokenValid)
	assert.Equal(t, "1h 30m", st.Remaining)
	assert.Equal(t, "@studio", st.Username)

	st = StatusOf("linkedin", conns, now)
	assert.True(t, st.Connected)
	assert.False(t, st.TokenValid)
	assert.Equal(t, "expiré", st.Remaining)

	st = StatusOf("Instagram", conns, now)
	assert.Equal(t, Status{Platform: "Instagram"}, st)

	// expiry exactly now is not valid
	st = StatusOf("X", []Connexion{{PlatformName: "X", TokenExpiresAt: &now}}, now)
	assert.False(t, st.TokenValid)
}

func TestStatus_JSON(t *testing.T) {
	exp := now.Add(time.Hour)
	raw, err := json.Marshal(StatusOf("X", []Connexion{{PlatformName: "X", TokenExpiresAt: &exp}}, now))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "X", m["plateforme"])
	assert.Equal(t, true, m["connecte"])
	assert.Equal(t, true, m["tokenValide"])
	assert.Equal(t, "1h 0m", m["tempsRestant"])
	assert.Contains(t, m, "expireLe")
}
