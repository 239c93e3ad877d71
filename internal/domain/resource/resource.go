// Package resource provides CRUD over the backend's plain entity families
// (projets, templates, prompts, modelIA, utilisateurs, historiques,
// contenus). Each family is one Resource instantiated with its entity type.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/querycache"
	"github.com/vadim/neo-studio/internal/search"
)

// Requester is the subset of the backend client used by resources
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Entity is implemented by every resource item
type Entity interface {
	// SearchFields returns the texts matched by free-text search
	SearchFields() []string
}

// Validator is implemented by entities checked before being sent
type Validator interface {
	Validate() error
}

// Notifier surfaces action outcomes to the user
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// Options configures a Resource
type Options struct {
	StaleTime time.Duration
	Notifier  Notifier
	Logger    *slog.Logger
	Observer  querycache.Observer
}

// Resource is the CRUD client of one entity family
type Resource[T Entity] struct {
	name     string
	path     string
	api      Requester
	cache    *querycache.Query[[]T]
	notifier Notifier
	logger   *slog.Logger
}

// New creates a resource for the entity family served under path
func New[T Entity](name, path string, api Requester, opts Options) *Resource[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	r := &Resource[T]{
		name:     name,
		path:     path,
		api:      api,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}

	var cacheOpts []querycache.Option
	if opts.Observer != nil {
		cacheOpts = append(cacheOpts, querycache.WithObserver(opts.Observer))
	}
	r.cache = querycache.New(name, opts.StaleTime, r.fetch, cacheOpts...)

	return r
}

// Name returns the family name, e.g. "templates"
func (r *Resource[T]) Name() string {
	return r.name
}

// List returns every item, served from cache when fresh
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	snap, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// Search returns the items matching query. A blank query returns everything.
func (r *Resource[T]) Search(ctx context.Context, query string) ([]T, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return search.Filter(items, query, func(item T) []string {
		return item.SearchFields()
	}), nil
}

// Get retrieves one item from the backend
func (r *Resource[T]) Get(ctx context.Context, id common.ID) (*T, error) {
	var item T
	if err := r.api.Get(ctx, r.itemPath(id), &item); err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", r.name, id, err)
	}
	return &item, nil
}

// Create validates and creates an item
func (r *Resource[T]) Create(ctx context.Context, item T) (*T, error) {
	var created T
	err := r.mutate(ctx, "création", func() error {
		if err := validate(item); err != nil {
			return err
		}
		if err := r.api.Post(ctx, r.path, item, &created); err != nil {
			return fmt.Errorf("creating %s: %w", r.name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update validates and replaces an item
func (r *Resource[T]) Update(ctx context.Context, id common.ID, item T) (*T, error) {
	var updated T
	err := r.mutate(ctx, "modification", func() error {
		if err := validate(item); err != nil {
			return err
		}
		if err := r.api.Put(ctx, r.itemPath(id), item, &updated); err != nil {
			return fmt.Errorf("updating %s %s: %w", r.name, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an item
func (r *Resource[T]) Delete(ctx context.Context, id common.ID) error {
	return r.mutate(ctx, "suppression", func() error {
		if err := r.api.Delete(ctx, r.itemPath(id)); err != nil {
			return fmt.Errorf("deleting %s %s: %w", r.name, id, err)
		}
		return nil
	})
}

// Refresh forces a reload of the list
func (r *Resource[T]) Refresh(ctx context.Context) error {
	_, err := r.cache.Refetch(ctx)
	return err
}

func (r *Resource[T]) mutate(ctx context.Context, action string, fn func() error) error {
	if err := fn(); err != nil {
		r.notifier.Failure(ctx, fmt.Sprintf("Échec de la %s (%s)", action, r.name), err)
		return err
	}

	if _, err := r.cache.Refetch(ctx); err != nil {
		r.cache.Invalidate()
		r.logger.Warn("refetching after mutation", "resource", r.name, "error", err)
	}
	r.notifier.Success(ctx, fmt.Sprintf("%s réussie (%s)", capitalize(action), r.name))
	return nil
}

func (r *Resource[T]) fetch(ctx context.Context) ([]T, error) {
	var out common.List[T]
	if err := r.api.Get(ctx, r.path, &out); err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.name, err)
	}
	return out, nil
}

func (r *Resource[T]) itemPath(id common.ID) string {
	return r.path + "/" + url.PathEscape(id.String())
}

func validate(item any) error {
	if v, ok := item.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// capitalize upper-cases the first letter of an ASCII word
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string)        {}
func (nopNotifier) Failure(context.Context, string, error) {}
