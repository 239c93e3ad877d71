package entity

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublication_DecodeBackendPayload(t *testing.T) {
	raw := `{
		"id": 12,
		"statut": "programme",
		"titre_publication": "Lancement",
		"parametres_publication": {"message": "Bonjour"},
		"id_contenu": 3,
		"plateforme": "X",
		"id_plateforme": 1,
		"date_creation": "2026-10-01T10:00:00Z",
		"date_programmee": "2026-10-20T09:00:00Z",
		"nombre_vues": 10
	}`

	var p Publication
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.EqualValues(t, "12", p.ID)
	assert.Equal(t, PublicationStatusScheduled, p.Status)
	assert.Equal(t, "Bonjour", p.DisplayMessage())
	assert.Equal(t, "X", p.PlatformName())
	assert.True(t, p.CanReschedule())
	assert.True(t, p.CanCancel())
	assert.False(t, p.CanPublishNow())
	assert.Nil(t, p.PublishedAt)
	assert.Equal(t, p.CreatedAt, p.LastModified())
}

func TestPublication_PlatformObject(t *testing.T) {
	var p Publication
	require.NoError(t, json.Unmarshal([]byte(`{"plateforme":{"id":"x1","nom":"LinkedIn"}}`), &p))
	assert.Equal(t, "LinkedIn", p.PlatformName())
	assert.EqualValues(t, "x1", p.Platform.ID)
}

func TestPublication_IsScheduledBetween(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	at := now.Add(2 * time.Hour)
	p := Publication{Status: PublicationStatusScheduled, ScheduledAt: &at}

	assert.True(t, p.IsScheduledBetween(now, now.Add(24*time.Hour)))
	assert.True(t, p.IsScheduledBetween(now, at))
	assert.False(t, p.IsScheduledBetween(now, now.Add(time.Hour)))

	p.Status = PublicationStatusDraft
	assert.False(t, p.IsScheduledBetween(now, now.Add(24*time.Hour)))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Publie ")
	require.NoError(t, err)
	assert.Equal(t, PublicationStatusPublished, st)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateInput_Validate(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		in         CreateInput
		wantFields []string
		wantErr    error
	}{
		{
			name: "valid draft",
			in:   CreateInput{Title: "t", Message: "m", PlatformID: "1"},
		},
		{
			name:       "all required missing",
			in:         CreateInput{Message: "  "},
			wantFields: []string{"titre_publication", "message", "id_plateforme"},
		},
		{
			name:       "scheduled without date",
			in:         CreateInput{Title: "t", Message: "m", PlatformID: "1", Mode: CreateModeScheduled},
			wantFields: []string{"date_programmee"},
		},
		{
			name:    "scheduled in the past",
			in:      CreateInput{Title: "t", Message: "m", PlatformID: "1", Mode: CreateModeScheduled, ScheduledAt: &past},
			wantErr: ErrScheduledTimeInPast,
		},
		{
			name: "scheduled in the future",
			in:   CreateInput{Title: "t", Message: "m", PlatformID: "1", Mode: CreateModeScheduled, ScheduledAt: &future},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(now)
			switch {
			case tt.wantFields != nil:
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantFields, ve.Fields)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateInput_Payload(t *testing.T) {
	at := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	draft := CreateInput{Title: "t", Message: "m", PlatformID: "1", Mode: CreateModeImmediate, ScheduledAt: &at}.Payload()
	assert.Equal(t, PublicationStatusDraft, draft.Status)
	assert.Nil(t, draft.ScheduledAt)
	assert.Equal(t, "m", draft.Parameters.Message)

	scheduled := CreateInput{Title: "t", Message: "m", PlatformID: "1", Mode: CreateModeScheduled, ScheduledAt: &at}.Payload()
	assert.Equal(t, PublicationStatusScheduled, scheduled.Status)
	assert.Equal(t, &at, scheduled.ScheduledAt)
}

func TestPatch_Transitions(t *testing.T) {
	publie := PublicationStatusPublished
	programme := PublicationStatusScheduled
	at := time.Now().Add(time.Hour)

	assert.True(t, Patch{Status: &publie}.IsPublish())
	assert.False(t, Patch{Status: &publie}.IsReschedule())
	assert.True(t, Patch{Status: &programme, ScheduledAt: &at}.IsReschedule())
	assert.True(t, Patch{ScheduledAt: &at}.IsReschedule())
	assert.False(t, Patch{}.IsPublish())

	title := "t"
	mixed := Patch{Title: &title, Status: &publie}
	assert.True(t, mixed.HasEdits())
	assert.False(t, Patch{Status: &publie}.HasEdits())
	assert.Nil(t, mixed.WithoutStatus().Status)
	assert.Equal(t, &title, mixed.WithoutStatus().Title)
}

func TestPatch_IsStale(t *testing.T) {
	loadedAt := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	// the backend keeps milliseconds, HTTP dates only seconds
	modified := loadedAt.Add(500 * time.Millisecond)
	echoed, err := http.ParseTime(modified.Format(http.TimeFormat))
	require.NoError(t, err)

	pub := &Publication{CreatedAt: loadedAt.Add(-time.Hour), UpdatedAt: &modified}

	assert.False(t, Patch{LoadedAt: &echoed}.IsStale(pub))
	assert.False(t, Patch{}.IsStale(pub))

	later := modified.Add(time.Second)
	pub.UpdatedAt = &later
	assert.True(t, Patch{LoadedAt: &echoed}.IsStale(pub))
}
