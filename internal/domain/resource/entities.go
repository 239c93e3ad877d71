package resource

import (
	"encoding/json"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/search"
	"github.com/vadim/neo-studio/internal/validation"
)

// Projet groups contents of a user
type Projet struct {
	ID          common.ID `json:"id,omitempty"`
	Nom         string    `json:"nom" validate:"notblank"`
	Description string    `json:"description,omitempty"`
	UserID      common.ID `json:"id_utilisateur,omitempty"`
	CreatedAt   time.Time `json:"date_creation,omitzero"`
}

// SearchFields implements Entity
func (p Projet) SearchFields() []string {
	return []string{p.Nom, p.Description, search.Date(p.CreatedAt)}
}

// Validate implements Validator
func (p Projet) Validate() error {
	return validation.Struct(p)
}

// Prompt is a saved generation prompt
type Prompt struct {
	ID         common.ID `json:"id,omitempty"`
	Titre      string    `json:"titre"`
	Contenu    string    `json:"contenu"`
	TemplateID common.ID `json:"id_template,omitempty"`
	CreatedAt  time.Time `json:"date_creation,omitzero"`
}

// SearchFields implements Entity
func (p Prompt) SearchFields() []string {
	return []string{p.Titre, p.Contenu, search.Date(p.CreatedAt)}
}

// ModelIA is an AI model configuration managed by admins
type ModelIA struct {
	ID          common.ID       `json:"id,omitempty"`
	Nom         string          `json:"nom" validate:"notblank"`
	Fournisseur string          `json:"fournisseur,omitempty"`
	Version     string          `json:"version,omitempty"`
	Parametres  json.RawMessage `json:"parametres,omitempty" validate:"omitempty,json"`
	Actif       bool            `json:"actif"`
}

// SearchFields implements Entity
func (m ModelIA) SearchFields() []string {
	return []string{m.Nom, m.Fournisseur, m.Version, string(m.Parametres)}
}

// Validate implements Validator. Parameters are free JSON typed by the user.
func (m ModelIA) Validate() error {
	return validation.Struct(m)
}

// Utilisateur is an account managed by admins
type Utilisateur struct {
	ID        common.ID `json:"id,omitempty"`
	Nom       string    `json:"nom" validate:"notblank"`
	Prenom    string    `json:"prenom,omitempty"`
	Email     string    `json:"email" validate:"required,email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"date_creation,omitzero"`
}

// SearchFields implements Entity
func (u Utilisateur) SearchFields() []string {
	return []string{u.Nom, u.Prenom, u.Email, u.Role}
}

// Validate implements Validator
func (u Utilisateur) Validate() error {
	return validation.Struct(u)
}

// Historique is one entry of the user's activity log
type Historique struct {
	ID          common.ID       `json:"id,omitempty"`
	Action      string          `json:"action"`
	Description string          `json:"description,omitempty"`
	UserID      common.ID       `json:"id_utilisateur,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	Date        time.Time       `json:"date_action,omitzero"`
}

// SearchFields implements Entity
func (h Historique) SearchFields() []string {
	return []string{h.Action, h.Description, search.Date(h.Date), string(h.Details)}
}

// ContentType is the kind of generated content
type ContentType string

const (
	ContentTypeText       ContentType = "texte"
	ContentTypeImage      ContentType = "image"
	ContentTypeMultimodal ContentType = "multimodal"
)

// Contenu is a piece of AI-generated content owned by a user
type Contenu struct {
	ID         common.ID       `json:"id,omitempty"`
	Titre      string          `json:"titre"`
	Texte      string          `json:"texte,omitempty"`
	Type       ContentType     `json:"type,omitempty"`
	ProjectID  common.ID       `json:"id_projet,omitempty"`
	TemplateID common.ID       `json:"id_template,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"date_creation,omitzero"`
}

// SearchFields implements Entity
func (c Contenu) SearchFields() []string {
	return []string{c.Titre, c.Texte, search.Date(c.CreatedAt), string(c.Metadata)}
}
