// Package tracker counts destructive actions per (guild, actor) pair over a
// strict sliding window. Detection must not miss or double fire thresholds
// when events race, so append, trim and count happen as one locked step on
// the pair's own window.
package tracker

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type key struct {
	guildID string
	actorID string
}

type window struct {
	mu    sync.Mutex
	times []time.Time
	gone  bool
}

type Tracker struct {
	windows *xsync.Map[key, *window]
}

func New() *Tracker {
	return &Tracker{windows: xsync.NewMap[key, *window]()}
}

// Record appends now to the actor's window, evicts entries strictly older
// than now-span and returns the resulting count. Concurrent records for the
// same actor serialize on the window lock and observe distinct counts.
// Timestamps are expected to arrive in non decreasing order.
func (t *Tracker) Record(guildID, actorID string, now time.Time, span time.Duration) int {
	k := key{guildID: guildID, actorID: actorID}
	for {
		w, _ := t.windows.LoadOrCompute(k, func() (*window, bool) {
			return &window{}, false
		})
		w.mu.Lock()
		if w.gone {
			w.mu.Unlock()
			continue
		}
		w.times = append(w.times, now)
		w.trimLocked(now.Add(-span))
		count := len(w.times)
		w.mu.Unlock()
		return count
	}
}

// Count reports how many recorded actions fall within the window, without
// recording anything.
func (t *Tracker) Count(guildID, actorID string, now time.Time, span time.Duration) int {
	w, ok := t.windows.Load(key{guildID: guildID, actorID: actorID})
	if !ok {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gone {
		return 0
	}
	w.trimLocked(now.Add(-span))
	return len(w.times)
}

// Prune evicts entries strictly older than cutoff from every window and
// removes windows left empty. Removed windows are tombstoned under their own
// lock, so a racing Record re-creates the window instead of resurrecting it.
func (t *Tracker) Prune(cutoff time.Time) (removedWindows, evictedEntries int) {
	t.windows.Range(func(k key, w *window) bool {
		w.mu.Lock()
		before := len(w.times)
		w.trimLocked(cutoff)
		evictedEntries += before - len(w.times)
		if len(w.times) == 0 {
			w.gone = true
			w.mu.Unlock()
			t.windows.Delete(k)
			removedWindows++
			return true
		}
		w.mu.Unlock()
		return true
	})
	return removedWindows, evictedEntries
}

// Size returns the number of live windows.
func (t *Tracker) Size() int {
	return t.windows.Size()
}

func (w *window) trimLocked(cutoff time.Time) {
	idx := 0
	for idx < len(w.times) && w.times[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		n := copy(w.times, w.times[idx:])
		w.times = w.times[:n]
	}
}
