package selector

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func ids(list []entity.Publication) []common.ID {
	out := make([]common.ID, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestDerive_ExampleScenario(t *testing.T) {
	list := []entity.Publication{
		{ID: "1", Status: entity.PublicationStatusDraft, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "2", Status: entity.PublicationStatusScheduled, CreatedAt: now, ScheduledAt: at(2 * time.Hour)},
		{ID: "3", Status: entity.PublicationStatusError, CreatedAt: now},
	}

	v := Derive(list, now, DefaultOptions())

	assert.Equal(t, Stats{Total: 3, Drafts: 1, Scheduled: 1, Published: 0, Errors: 1}, v.Statistics)
	assert.Equal(t, []common.ID{"1"}, ids(v.Attention.StaleDraft))
	assert.Equal(t, []common.ID{"2"}, ids(v.Attention.Imminent))
	assert.Equal(t, []common.ID{"3"}, ids(v.Attention.Errors))
	assert.Equal(t, []common.ID{"2"}, ids(v.Upcoming))
	assert.Equal(t, 3, v.Attention.Count())
}

func TestStatistics_SuccessRate(t *testing.T) {
	list := []entity.Publication{
		{Status: entity.PublicationStatusPublished},
		{Status: entity.PublicationStatusPublished},
		{Status: entity.PublicationStatusError},
		{Status: entity.PublicationStatusCancelled},
	}

	s := Statistics(list)
	assert.Equal(t, 66.7, s.SuccessRate)
	assert.Equal(t, 1, s.Cancelled)
	assert.Zero(t, Statistics(nil).SuccessRate)
}

func randomList(r *rand.Rand, n int) []entity.Publication {
	statuses := append([]entity.PublicationStatus{"inconnu"}, entity.Statuses...)
	list := make([]entity.Publication, n)
	for i := range list {
		list[i] = entity.Publication{
			ID:        common.ID(strconv.Itoa(i)),
			Status:    statuses[r.Intn(len(statuses))],
			CreatedAt: now.Add(-time.Duration(r.Intn(20*24)) * time.Hour),
		}
		if r.Intn(3) > 0 {
			list[i].ScheduledAt = at(time.Duration(r.Intn(20*24)-5*24) * time.Hour)
		}
	}
	return list
}

func TestSelectors_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for n := 0; n < 200; n++ {
		list := randomList(r, r.Intn(40))

		s := Statistics(list)
		require.Equal(t, len(list), s.Total)
		require.LessOrEqual(t, s.Drafts+s.Scheduled+s.Published+s.Errors, len(list))

		buckets := ByStatus(list)
		drafts := buckets[BucketDrafts]
		for _, p := range drafts {
			require.Equal(t, entity.PublicationStatusDraft, p.Status)
		}
		require.Len(t, drafts, s.Drafts)
		require.Equal(t, drafts, ByStatus(drafts)[BucketDrafts])
		require.Len(t, buckets[BucketAll], len(list))

		up := Upcoming(list, now, DefaultUpcomingWindow, 0)
		require.True(t, sort.SliceIsSorted(up, func(i, j int) bool {
			return up[i].ScheduledAt.Before(*up[j].ScheduledAt)
		}))
		for _, p := range up {
			require.Equal(t, entity.PublicationStatusScheduled, p.Status)
			require.False(t, p.ScheduledAt.Before(now))
			require.False(t, p.ScheduledAt.After(now.Add(DefaultUpcomingWindow)))
		}

		imminent := map[common.ID]int{}
		for _, p := range Attention(list, now).Imminent {
			imminent[p.ID]++
		}
		want := map[common.ID]int{}
		for _, p := range list {
			if p.Status == entity.PublicationStatusScheduled && p.ScheduledAt != nil &&
				!p.ScheduledAt.Before(now) && !p.ScheduledAt.After(now.Add(ImminentWindow)) {
				want[p.ID]++
			}
		}
		require.Equal(t, want, imminent)
	}
}

func TestUpcoming_SortedAndCapped(t *testing.T) {
	list := []entity.Publication{
		{ID: "late", Status: entity.PublicationStatusScheduled, ScheduledAt: at(6 * 24 * time.Hour)},
		{ID: "past", Status: entity.PublicationStatusScheduled, ScheduledAt: at(-time.Minute)},
		{ID: "soon", Status: entity.PublicationStatusScheduled, ScheduledAt: at(time.Hour)},
		{ID: "draft", Status: entity.PublicationStatusDraft, ScheduledAt: at(2 * time.Hour)},
		{ID: "mid", Status: entity.PublicationStatusScheduled, ScheduledAt: at(3 * 24 * time.Hour)},
		{ID: "far", Status: entity.PublicationStatusScheduled, ScheduledAt: at(8 * 24 * time.Hour)},
	}

	assert.Equal(t, []common.ID{"soon", "mid", "late"}, ids(Upcoming(list, now, DefaultUpcomingWindow, 0)))
	assert.Equal(t, []common.ID{"soon", "mid"}, ids(Upcoming(list, now, DefaultUpcomingWindow, 2)))
}

func TestAttention_StaleDraftUsesModificationDate(t *testing.T) {
	list := []entity.Publication{
		{ID: "touched", Status: entity.PublicationStatusDraft, CreatedAt: now.Add(-30 * 24 * time.Hour), UpdatedAt: at(-time.Hour)},
		{ID: "old", Status: entity.PublicationStatusDraft, CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "edge", Status: entity.PublicationStatusDraft, CreatedAt: now.Add(-StaleDraftAge)},
	}

	assert.Equal(t, []common.ID{"old"}, ids(Attention(list, now).StaleDraft))
}

func TestByStatus_DoesNotAliasInput(t *testing.T) {
	list := []entity.Publication{{ID: "1", Status: entity.PublicationStatusDraft}}
	buckets := ByStatus(list)
	buckets[BucketAll][0].Title = "changed"
	assert.Empty(t, list[0].Title)
	assert.Empty(t, buckets[BucketErrors])
}

func TestMemo(t *testing.T) {
	m := NewMemo(DefaultOptions(), time.Minute)
	list := []entity.Publication{{ID: "1", Status: entity.PublicationStatusDraft}}

	v1 := m.Get(1, list, now)
	assert.Equal(t, 1, v1.Statistics.Total)

	// same version, new list: memoised view is returned
	v2 := m.Get(1, nil, now.Add(time.Second))
	assert.Equal(t, 1, v2.Statistics.Total)
	assert.Equal(t, now, v2.ComputedAt)

	// new version recomputes
	v3 := m.Get(2, nil, now.Add(2*time.Second))
	assert.Equal(t, 0, v3.Statistics.Total)

	// age expiry recomputes
	v4 := m.Get(2, list, now.Add(2*time.Minute))
	assert.Equal(t, 1, v4.Statistics.Total)
}
