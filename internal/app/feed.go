package app

import (
	"sync"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

// ScoreFeed is an in-process subscribe/broadcast hub for live game scores.
// Grading and retroactive repair publish here after their transaction
// commits; delivery is best-effort and never part of the transaction.
type ScoreFeed struct {
	now func() time.Time

	mu   sync.Mutex
	subs map[string]map[chan domain.GameScore]struct{}
}

func NewScoreFeed() *ScoreFeed {
	return newScoreFeedWithClock(time.Now)
}

// newScoreFeedWithClock allows deterministic timestamps in tests.
func newScoreFeedWithClock(now func() time.Time) *ScoreFeed {
	return &ScoreFeed{
		now:  now,
		subs: make(map[string]map[chan domain.GameScore]struct{}),
	}
}

// Subscribe returns a channel that receives score updates for a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *ScoreFeed) Subscribe(gameID string) (<-chan domain.GameScore, func()) {
	ch := make(chan domain.GameScore, 8)

	f.mu.Lock()
	if f.subs[gameID] == nil {
		f.subs[gameID] = make(map[chan domain.GameScore]struct{})
	}
	f.subs[gameID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[gameID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, gameID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans a score snapshot out to the game's subscribers. Slow
// consumers get the stale update dropped rather than blocking the publisher.
func (f *ScoreFeed) Publish(gameID string, score int) {
	snapshot := domain.GameScore{
		GameID:       gameID,
		CurrentScore: score,
		UpdatedAt:    f.now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[gameID] {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
