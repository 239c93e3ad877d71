// Package selector derives dashboard read models from the canonical
// publication list. Every function is pure: it never mutates its input and
// takes the current time explicitly.
package selector

import (
	"math"
	"sort"
	"time"

	"github.com/vadim/neo-studio/internal/domain/publication/entity"
)

const (
	// DefaultUpcomingWindow is how far ahead upcoming publications are listed
	DefaultUpcomingWindow = 7 * 24 * time.Hour
	// DefaultUpcomingLimit caps the upcoming list
	DefaultUpcomingLimit = 5
	// ImminentWindow flags scheduled publications needing attention soon
	ImminentWindow = 24 * time.Hour
	// StaleDraftAge is the age after which an untouched draft needs attention
	StaleDraftAge = 7 * 24 * time.Hour
)

// Bucket keys of ByStatus
const (
	BucketAll       = "toutes"
	BucketDrafts    = "brouillons"
	BucketScheduled = "programmees"
	BucketPublished = "publiees"
	BucketErrors    = "enErreur"
	BucketCancelled = "annulees"
)

var bucketOf = map[entity.PublicationStatus]string{
	entity.PublicationStatusDraft:     BucketDrafts,
	entity.PublicationStatusScheduled: BucketScheduled,
	entity.PublicationStatusPublished: BucketPublished,
	entity.PublicationStatusError:     BucketErrors,
	entity.PublicationStatusCancelled: BucketCancelled,
}

// Stats holds plain counts over the list
type Stats struct {
	Total       int     `json:"total"`
	Drafts      int     `json:"brouillons"`
	Scheduled   int     `json:"programmees"`
	Published   int     `json:"publiees"`
	Errors      int     `json:"enErreur"`
	Cancelled   int     `json:"annulees"`
	SuccessRate float64 `json:"tauxReussite"`
}

// Statistics counts publications per status. Cancelled and unknown statuses
// count toward Total only.
func Statistics(list []entity.Publication) Stats {
	s := Stats{Total: len(list)}
	for i := range list {
		switch list[i].Status {
		case entity.PublicationStatusDraft:
			s.Drafts++
		case entity.PublicationStatusScheduled:
			s.Scheduled++
		case entity.PublicationStatusPublished:
			s.Published++
		case entity.PublicationStatusError:
			s.Errors++
		case entity.PublicationStatusCancelled:
			s.Cancelled++
		}
	}
	s.SuccessRate = successRate(s.Published, s.Errors)
	return s
}

// successRate is the share of publish attempts that succeeded, in percent
// with one decimal
func successRate(published, failed int) float64 {
	attempts := published + failed
	if attempts == 0 {
		return 0
	}
	return math.Round(float64(published)/float64(attempts)*1000) / 10
}

// ByStatus splits the list into buckets keyed by status. Every bucket key
// is present, possibly empty, and keeps the source order.
func ByStatus(list []entity.Publication) map[string][]entity.Publication {
	out := map[string][]entity.Publication{
		BucketAll:       append([]entity.Publication{}, list...),
		BucketDrafts:    {},
		BucketScheduled: {},
		BucketPublished: {},
		BucketErrors:    {},
		BucketCancelled: {},
	}
	for _, p := range list {
		if key, ok := bucketOf[p.Status]; ok {
			out[key] = append(out[key], p)
		}
	}
	return out
}

// WithStatus returns the publications having the given status
func WithStatus(list []entity.Publication, status entity.PublicationStatus) []entity.Publication {
	return filter(list, func(p *entity.Publication) bool {
		return p.Status == status
	})
}

// Upcoming returns scheduled publications due within [now, now+window],
// sorted by scheduled date ascending and capped to limit (no cap when
// limit <= 0).
func Upcoming(list []entity.Publication, now time.Time, window time.Duration, limit int) []entity.Publication {
	out := filter(list, func(p *entity.Publication) bool {
		return p.IsScheduledBetween(now, now.Add(window))
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AttentionBuckets groups publications needing user action
type AttentionBuckets struct {
	Errors     []entity.Publication `json:"enErreur"`
	Imminent   []entity.Publication `json:"programmationsImminentes"`
	StaleDraft []entity.Publication `json:"brouillonsAnciens"`
}

// Count returns the number of publications across all buckets
func (a AttentionBuckets) Count() int {
	return len(a.Errors) + len(a.Imminent) + len(a.StaleDraft)
}

// Attention computes the triage buckets
func Attention(list []entity.Publication, now time.Time) AttentionBuckets {
	return AttentionBuckets{
		Errors: WithStatus(list, entity.PublicationStatusError),
		Imminent: filter(list, func(p *entity.Publication) bool {
			return p.IsScheduledBetween(now, now.Add(ImminentWindow))
		}),
		StaleDraft: filter(list, func(p *entity.Publication) bool {
			return p.Status == entity.PublicationStatusDraft && now.Sub(p.LastModified()) > StaleDraftAge
		}),
	}
}

func filter(list []entity.Publication, keep func(*entity.Publication) bool) []entity.Publication {
	out := []entity.Publication{}
	for i := range list {
		if keep(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}
