package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/httpx/upstream/backend"
	"github.com/vadim/neo-studio/internal/querycache"
	"github.com/vadim/neo-studio/internal/search"
)

// CacheKey is the query cache key of the publication list
const CacheKey = "publications"

// PublicationService defines the backend operations used by the workflow
// This interface is defined here (consumer) not in the service package (provider)
type PublicationService interface {
	List(ctx context.Context) ([]entity.Publication, error)
	Get(ctx context.Context, id common.ID) (*entity.Publication, error)
	Create(ctx context.Context, payload entity.Payload) (*entity.Publication, error)
	Update(ctx context.Context, id common.ID, patch entity.Patch) (*entity.Publication, error)
	Delete(ctx context.Context, id common.ID) error
	Publish(ctx context.Context, id common.ID) (*entity.Publication, error)
	Schedule(ctx context.Context, id common.ID, at time.Time) (*entity.Publication, error)
	Cancel(ctx context.Context, id common.ID) (*entity.Publication, error)
}

// Notifier surfaces action outcomes to the user
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// Confirmer asks the user to confirm an irreversible deletion
type Confirmer interface {
	ConfirmDeletion(ctx context.Context, pub *entity.Publication) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, pub *entity.Publication) (bool, error)

// ConfirmDeletion implements Confirmer
func (f ConfirmFunc) ConfirmDeletion(ctx context.Context, pub *entity.Publication) (bool, error) {
	return f(ctx, pub)
}

// Confirmed is a Confirmer for callers that already collected consent
var Confirmed Confirmer = ConfirmFunc(func(context.Context, *entity.Publication) (bool, error) {
	return true, nil
})

// Loading holds one in-progress flag per action
type Loading struct {
	Fetching   bool `json:"fetching"`
	Creating   bool `json:"creating"`
	Updating   bool `json:"updating"`
	Deleting   bool `json:"deleting"`
	Publishing bool `json:"publishing"`
	Scheduling bool `json:"scheduling"`
	Cancelling bool `json:"cancelling"`
}

type action int

const (
	actionCreate action = iota
	actionUpdate
	actionDelete
	actionPublish
	actionSchedule
	actionCancel
	actionCount
)

var actionMessages = [actionCount]struct{ ok, failed string }{
	actionCreate:   {"Publication créée", "Échec de la création de la publication"},
	actionUpdate:   {"Publication modifiée", "Échec de la modification de la publication"},
	actionDelete:   {"Publication supprimée", "Échec de la suppression de la publication"},
	actionPublish:  {"Publication publiée", "Échec de la publication"},
	actionSchedule: {"Publication programmée", "Échec de la programmation de la publication"},
	actionCancel:   {"Publication annulée", "Échec de l'annulation de la publication"},
}

// Options tunes the workflow
type Options struct {
	StaleTime time.Duration
	View      selector.Options
	Now       func() time.Time
	Logger    *slog.Logger
	Observer  querycache.Observer
}

// Policy orchestrates the publication workflow: it reads the cached list,
// derives the dashboard views and runs lifecycle actions. Every successful
// action is followed by a full refetch; the cached list is never modified
// locally.
type Policy struct {
	svc      PublicationService
	notifier Notifier
	cache    *querycache.Query[[]entity.Publication]
	memo     *selector.Memo
	now      func() time.Time
	logger   *slog.Logger
	inflight [actionCount]atomic.Int32
}

// New creates a new publication workflow
func New(svc PublicationService, notifier Notifier, opts Options) *Policy {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.View.UpcomingWindow <= 0 {
		opts.View = selector.DefaultOptions()
	}

	cacheOpts := []querycache.Option{querycache.WithClock(opts.Now)}
	if opts.Observer != nil {
		cacheOpts = append(cacheOpts, querycache.WithObserver(opts.Observer))
	}

	return &Policy{
		svc:      svc,
		notifier: notifier,
		cache:    querycache.New(CacheKey, opts.StaleTime, svc.List, cacheOpts...),
		// time windows move with the clock: recompute at least every minute
		memo:   selector.NewMemo(opts.View, time.Minute),
		now:    opts.Now,
		logger: opts.Logger,
	}
}

// List returns the cached publication list, fetching it when stale
func (p *Policy) List(ctx context.Context) ([]entity.Publication, error) {
	snap, err := p.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// SearchInput filters the publication list
type SearchInput struct {
	Status *entity.PublicationStatus
	Query  string
}

// Search returns publications matching a status and a free-text query
func (p *Policy) Search(ctx context.Context, in SearchInput) ([]entity.Publication, error) {
	list, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		list = selector.WithStatus(list, *in.Status)
	}
	return search.Filter(list, in.Query, publicationFields), nil
}

func publicationFields(pub entity.Publication) []string {
	fields := []string{
		pub.Title,
		pub.DisplayMessage(),
		pub.PlatformName(),
		string(pub.Status),
		search.Date(pub.CreatedAt),
	}
	if pub.Parameters != nil {
		fields = append(fields, search.Serialize(pub.Parameters))
	}
	return fields
}

// Get returns a publication from the cached list. Publications missing from
// the list, created elsewhere since the last fetch for instance, are asked to
// the backend.
func (p *Policy) Get(ctx context.Context, id common.ID) (*entity.Publication, error) {
	list, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	if pub := find(list, id); pub != nil {
		return pub, nil
	}

	pub, err := p.svc.Get(ctx, id)
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok && apiErr.IsNotFound() {
			return nil, entity.ErrPublicationNotFound
		}
		return nil, err
	}
	return pub, nil
}

// View returns the derived dashboard state, memoised per list version
func (p *Policy) View(ctx context.Context) (selector.View, error) {
	snap, err := p.cache.Get(ctx)
	if err != nil {
		return selector.View{}, err
	}
	return p.memo.Get(snap.Version, snap.Data, p.now()), nil
}

// Loading returns the in-progress flags of every action
func (p *Policy) Loading() Loading {
	busy := func(a action) bool { return p.inflight[a].Load() > 0 }
	return Loading{
		Fetching:   p.cache.Fetching(),
		Creating:   busy(actionCreate),
		Updating:   busy(actionUpdate),
		Deleting:   busy(actionDelete),
		Publishing: busy(actionPublish),
		Scheduling: busy(actionSchedule),
		Cancelling: busy(actionCancel),
	}
}

// Refresh forces a refetch of the publication list
func (p *Policy) Refresh(ctx context.Context) error {
	_, err := p.cache.Refetch(ctx)
	return err
}

// Create validates the form payload and creates the publication. Immediate
// publications are created as drafts then published through the dedicated
// publish endpoint.
func (p *Policy) Create(ctx context.Context, in entity.CreateInput) (*entity.Publication, error) {
	var pub *entity.Publication
	err := p.run(ctx, actionCreate, func() error {
		if err := in.Validate(p.now()); err != nil {
			return err
		}

		created, err := p.svc.Create(ctx, in.Payload())
		if err != nil {
			return err
		}
		pub = created

		if in.Mode == entity.CreateModeImmediate {
			published, err := p.svc.Publish(ctx, created.ID)
			if err != nil {
				// the draft exists: make it visible before failing
				p.refetch(ctx)
				return err
			}
			pub = published
		}
		return nil
	})
	return pub, err
}

// Update applies a patch. A transition to published goes through the
// dedicated publish endpoint so both paths post to the platform; the other
// fields of such a patch are saved first.
func (p *Policy) Update(ctx context.Context, id common.ID, patch entity.Patch) (*entity.Publication, error) {
	if !patch.IsPublish() {
		return p.update(ctx, id, patch)
	}
	if !patch.HasEdits() {
		return p.Publish(ctx, id)
	}

	// refuse before saving anything the publish step would reject
	if err := p.gate(id, (*entity.Publication).CanPublishNow); err != nil {
		p.notifier.Failure(ctx, actionMessages[actionPublish].failed, err)
		return nil, err
	}
	if _, err := p.update(ctx, id, patch.WithoutStatus()); err != nil {
		return nil, err
	}
	return p.Publish(ctx, id)
}

func (p *Policy) update(ctx context.Context, id common.ID, patch entity.Patch) (*entity.Publication, error) {
	var pub *entity.Publication
	err := p.run(ctx, actionUpdate, func() error {
		if cached := p.cached(id); cached != nil && patch.IsStale(cached) {
			return entity.ErrStaleEdit
		}
		if patch.IsReschedule() {
			if err := p.gate(id, (*entity.Publication).CanSchedule); err != nil {
				return err
			}
			if !patch.ScheduledAt.After(p.now()) {
				return entity.ErrScheduledTimeInPast
			}
		}

		updated, err := p.svc.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		pub = updated
		return nil
	})
	return pub, err
}

// Delete irreversibly removes a publication once the confirmer agrees.
// Nothing is sent to the backend when confirmation is declined.
func (p *Policy) Delete(ctx context.Context, id common.ID, confirmer Confirmer) error {
	target := p.cached(id)
	if target == nil {
		target = &entity.Publication{ID: id}
	}

	ok, err := confirmer.ConfirmDeletion(ctx, target)
	if err != nil {
		return fmt.Errorf("confirming deletion: %w", err)
	}
	if !ok {
		return entity.ErrDeletionNotConfirmed
	}

	return p.run(ctx, actionDelete, func() error {
		return p.svc.Delete(ctx, id)
	})
}

// Publish publishes a draft immediately
func (p *Policy) Publish(ctx context.Context, id common.ID) (*entity.Publication, error) {
	var pub *entity.Publication
	err := p.run(ctx, actionPublish, func() error {
		if err := p.gate(id, (*entity.Publication).CanPublishNow); err != nil {
			return err
		}
		published, err := p.svc.Publish(ctx, id)
		if err != nil {
			return err
		}
		pub = published
		return nil
	})
	return pub, err
}

// Schedule schedules a draft or reschedules a scheduled publication
func (p *Policy) Schedule(ctx context.Context, id common.ID, at time.Time) (*entity.Publication, error) {
	var pub *entity.Publication
	err := p.run(ctx, actionSchedule, func() error {
		if err := p.gate(id, (*entity.Publication).CanSchedule); err != nil {
			return err
		}
		if !at.After(p.now()) {
			return entity.ErrScheduledTimeInPast
		}
		scheduled, err := p.svc.Schedule(ctx, id, at)
		if err != nil {
			return err
		}
		pub = scheduled
		return nil
	})
	return pub, err
}

// Cancel cancels a scheduled publication
func (p *Policy) Cancel(ctx context.Context, id common.ID) (*entity.Publication, error) {
	var pub *entity.Publication
	err := p.run(ctx, actionCancel, func() error {
		if err := p.gate(id, (*entity.Publication).CanCancel); err != nil {
			return err
		}
		cancelled, err := p.svc.Cancel(ctx, id)
		if err != nil {
			return err
		}
		pub = cancelled
		return nil
	})
	return pub, err
}

// run flags the action as in progress, executes it, refetches the list on
// success and notifies the outcome. Errors are returned unchanged.
func (p *Policy) run(ctx context.Context, a action, fn func() error) error {
	p.inflight[a].Add(1)
	defer p.inflight[a].Add(-1)

	if err := fn(); err != nil {
		p.notifier.Failure(ctx, actionMessages[a].failed, err)
		return err
	}

	p.refetch(ctx)
	p.notifier.Success(ctx, actionMessages[a].ok)
	return nil
}

// refetch reloads the list after a mutation. A failed reload leaves the list
// marked stale so the next read retries.
func (p *Policy) refetch(ctx context.Context) {
	if _, err := p.cache.Refetch(ctx); err != nil {
		p.cache.Invalidate()
		p.logger.Warn("refetching publications after mutation", "error", err)
	}
}

// gate checks an action against the cached status. Publications absent from
// the cache are left to the backend to judge.
func (p *Policy) gate(id common.ID, allowed func(*entity.Publication) bool) error {
	pub := p.cached(id)
	if pub == nil || allowed(pub) {
		return nil
	}
	return fmt.Errorf("%w: %s", entity.ErrActionNotAllowed, pub.Status)
}

func (p *Policy) cached(id common.ID) *entity.Publication {
	snap, ok := p.cache.Peek()
	if !ok {
		return nil
	}
	return find(snap.Data, id)
}

func find(list []entity.Publication, id common.ID) *entity.Publication {
	for i := range list {
		if list[i].ID == id {
			pub := list[i]
			return &pub
		}
	}
	return nil
}

// IsClientError reports whether err was raised locally before reaching the
// backend
func IsClientError(err error) bool {
	return entity.IsValidationError(err) ||
		errors.Is(err, entity.ErrActionNotAllowed) ||
		errors.Is(err, entity.ErrDeletionNotConfirmed) ||
		errors.Is(err, entity.ErrScheduledTimeInPast) ||
		errors.Is(err, entity.ErrInvalidMode) ||
		errors.Is(err, entity.ErrStaleEdit)
}
