package selector

import (
	"sync"
	"time"

	"github.com/vadim/neo-studio/internal/domain/publication/entity"
)

// Options tunes the time windows of a View
type Options struct {
	UpcomingWindow time.Duration
	UpcomingLimit  int
}

// DefaultOptions returns the dashboard defaults
func DefaultOptions() Options {
	return Options{
		UpcomingWindow: DefaultUpcomingWindow,
		UpcomingLimit:  DefaultUpcomingLimit,
	}
}

// View is the complete derived state of a publication list
type View struct {
	Statistics Stats                           `json:"statistiques"`
	ByStatus   map[string][]entity.Publication `json:"publicationsFiltrees"`
	Upcoming   []entity.Publication            `json:"prochainesPublications"`
	Attention  AttentionBuckets                `json:"publicationsAttention"`
	ComputedAt time.Time                       `json:"computedAt"`
}

// Derive computes every read model of the list
func Derive(list []entity.Publication, now time.Time, opts Options) View {
	return View{
		Statistics: Statistics(list),
		ByStatus:   ByStatus(list),
		Upcoming:   Upcoming(list, now, opts.UpcomingWindow, opts.UpcomingLimit),
		Attention:  Attention(list, now),
		ComputedAt: now,
	}
}

// Memo caches the last View per list version. Time-windowed buckets go
// stale as the clock moves, so a cached View is also dropped after maxAge.
type Memo struct {
	opts   Options
	maxAge time.Duration

	mu      sync.Mutex
	version uint64
	view    *View
}

// NewMemo creates a memo; maxAge <= 0 keeps a View until the version changes
func NewMemo(opts Options, maxAge time.Duration) *Memo {
	return &Memo{opts: opts, maxAge: maxAge}
}

// Get returns the View for the given list version, recomputing it only when
// the version changed or the cached View is older than maxAge
func (m *Memo) Get(version uint64, list []entity.Publication, now time.Time) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != nil && m.version == version &&
		(m.maxAge <= 0 || now.Sub(m.view.ComputedAt) < m.maxAge) {
		return *m.view
	}

	v := Derive(list, now, m.opts)
	m.version = version
	m.view = &v
	return v
}
