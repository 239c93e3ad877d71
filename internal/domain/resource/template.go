package resource

import (
	"regexp"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/search"
	"github.com/vadim/neo-studio/internal/validation"
)

var variablePattern = regexp.MustCompile(`\{\{\s*([\p{L}_][\p{L}\p{N}_]*)\s*\}\}`)

// Template is a reusable structure with {{variable}} placeholders used to
// steer content generation
type Template struct {
	ID          common.ID `json:"id,omitempty"`
	Titre       string    `json:"titre" validate:"notblank,max=255"`
	Structure   string    `json:"structure" validate:"notblank,max=10000,balanced_braces"`
	Description string    `json:"description,omitempty"`
	Categorie   string    `json:"categorie,omitempty"`
	CreatedAt   time.Time `json:"date_creation,omitzero"`
}

// SearchFields implements Entity
func (t Template) SearchFields() []string {
	return []string{t.Titre, t.Structure, t.Description, search.Date(t.CreatedAt)}
}

// Validate implements Validator
func (t Template) Validate() error {
	return validation.Struct(t)
}

// Variables returns the distinct placeholder names in order of appearance
func (t Template) Variables() []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range variablePattern.FindAllStringSubmatch(t.Structure, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
