package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownResource is returned for a family name the backend does not serve
var ErrUnknownResource = errors.New("unknown resource")

// Set holds one Resource per entity family
type Set struct {
	Projets      *Resource[Projet]
	Templates    *Resource[Template]
	Prompts      *Resource[Prompt]
	ModelIA      *Resource[ModelIA]
	Utilisateurs *Resource[Utilisateur]
	Historiques  *Resource[Historique]
	Contenus     *Resource[Contenu]

	searchers map[string]func(ctx context.Context, query string) (any, error)
}

// NewSet creates every entity family on top of the same backend client
func NewSet(api Requester, opts Options) *Set {
	s := &Set{
		Projets:      New[Projet]("projets", "/projets", api, opts),
		Templates:    New[Template]("templates", "/templates", api, opts),
		Prompts:      New[Prompt]("prompts", "/prompts", api, opts),
		ModelIA:      New[ModelIA]("modelIA", "/modelIA", api, opts),
		Utilisateurs: New[Utilisateur]("utilisateurs", "/utilisateurs", api, opts),
		Historiques:  New[Historique]("historiques", "/historiques", api, opts),
		Contenus:     New[Contenu]("contenus", "/contenus", api, opts),
	}

	s.searchers = map[string]func(context.Context, string) (any, error){}
	register(s, s.Projets)
	register(s, s.Templates)
	register(s, s.Prompts)
	register(s, s.ModelIA)
	register(s, s.Utilisateurs)
	register(s, s.Historiques)
	register(s, s.Contenus)

	return s
}

func register[T Entity](s *Set, r *Resource[T]) {
	s.searchers[r.Name()] = func(ctx context.Context, query string) (any, error) {
		return r.Search(ctx, query)
	}
}

// Names returns the family names in alphabetical order
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.searchers))
	for name := range s.searchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search runs a free-text search on the named family
func (s *Set) Search(ctx context.Context, name, query string) (any, error) {
	fn, ok := s.searchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}
	return fn(ctx, query)
}
