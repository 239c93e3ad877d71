package entity

import (
	"strings"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/validation"
)

// CreateMode is the user's choice when submitting the creation form
type CreateMode string

const (
	CreateModeDraft     CreateMode = "brouillon"
	CreateModeScheduled CreateMode = "programme"
	CreateModeImmediate CreateMode = "immediat"
)

// ParseCreateMode parses a creation mode, defaulting to draft
func ParseCreateMode(s string) (CreateMode, error) {
	switch CreateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", CreateModeDraft:
		return CreateModeDraft, nil
	case CreateModeScheduled:
		return CreateModeScheduled, nil
	case CreateModeImmediate:
		return CreateModeImmediate, nil
	default:
		return "", ErrInvalidMode
	}
}

// CreateInput is the payload of the creation form
type CreateInput struct {
	Title       string     `json:"titre_publication" validate:"notblank"`
	Message     string     `json:"message" validate:"notblank"`
	PlatformID  common.ID  `json:"id_plateforme" validate:"notblank"`
	ContentID   common.ID  `json:"id_contenu,omitempty"`
	Mode        CreateMode `json:"mode,omitempty"`
	ScheduledAt *time.Time `json:"date_programmee,omitempty" validate:"required_if=Mode programme"`
}

// Validate checks required fields before anything is sent to the backend
func (in CreateInput) Validate(now time.Time) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	if in.Mode == CreateModeScheduled && !in.ScheduledAt.After(now) {
		return ErrScheduledTimeInPast
	}

	return nil
}

// Payload is the body sent to POST /publications
type Payload struct {
	Title       string            `json:"titre_publication"`
	Message     string            `json:"message"`
	Parameters  Parameters        `json:"parametres_publication"`
	PlatformID  common.ID         `json:"id_plateforme"`
	ContentID   common.ID         `json:"id_contenu,omitempty"`
	Status      PublicationStatus `json:"statut"`
	ScheduledAt *time.Time        `json:"date_programmee,omitempty"`
}

// Payload builds the backend body. Immediate publications are created as
// drafts and published through the dedicated endpoint afterwards.
func (in CreateInput) Payload() Payload {
	p := Payload{
		Title:      in.Title,
		Message:    in.Message,
		Parameters: Parameters{Message: in.Message},
		PlatformID: in.PlatformID,
		ContentID:  in.ContentID,
		Status:     PublicationStatusDraft,
	}
	if in.Mode == CreateModeScheduled {
		p.Status = PublicationStatusScheduled
		p.ScheduledAt = in.ScheduledAt
	}
	return p
}

// Patch is the body of PUT /publications/:id. Nil fields are left untouched.
type Patch struct {
	Title       *string            `json:"titre_publication,omitempty"`
	Message     *string            `json:"message,omitempty"`
	Status      *PublicationStatus `json:"statut,omitempty"`
	ScheduledAt *time.Time         `json:"date_programmee,omitempty"`
	PlatformID  *common.ID         `json:"id_plateforme,omitempty"`

	// LoadedAt is the modification date the editor saw. It is checked
	// against the cached list and never sent to the backend.
	LoadedAt *time.Time `json:"-"`
}

// IsStale reports whether pub changed after the editor loaded it. LoadedAt
// usually comes from an HTTP date, so the comparison is made to the second.
func (p Patch) IsStale(pub *Publication) bool {
	return p.LoadedAt != nil && pub.LastModified().Truncate(time.Second).After(p.LoadedAt.Truncate(time.Second))
}

// HasEdits reports whether the patch changes anything besides the status
func (p Patch) HasEdits() bool {
	return p.Title != nil || p.Message != nil || p.ScheduledAt != nil || p.PlatformID != nil
}

// WithoutStatus returns the patch with the status change removed
func (p Patch) WithoutStatus() Patch {
	p.Status = nil
	return p
}

// IsPublish reports whether the patch requests a transition to published
func (p Patch) IsPublish() bool {
	return p.Status != nil && *p.Status == PublicationStatusPublished
}

// IsReschedule reports whether the patch moves the publication to a new date
func (p Patch) IsReschedule() bool {
	return p.ScheduledAt != nil && (p.Status == nil || *p.Status == PublicationStatusScheduled)
}
