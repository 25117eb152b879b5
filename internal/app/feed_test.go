package app

import (
	"testing"
	"time"
)

func TestScoreFeedDeliversToSubscribers(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	feed := newScoreFeedWithClock(func() time.Time { return at })

	ch, cancel := feed.Subscribe("g1")
	defer cancel()
	other, cancelOther := feed.Subscribe("g2")
	defer cancelOther()

	feed.Publish("g1", 600)

	select {
	case got := <-ch:
		if got.GameID != "g1" || got.CurrentScore != 600 || !got.UpdatedAt.Equal(at) {
			t.Fatalf("unexpected update: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update delivered")
	}

	select {
	case got := <-other:
		t.Fatalf("unrelated game received %+v", got)
	default:
	}
}

func TestScoreFeedDropsStaleUpdatesForSlowConsumers(t *testing.T) {
	feed := NewScoreFeed()
	ch, cancel := feed.Subscribe("g1")
	defer cancel()

	// Overflow the buffer without reading; the publisher must not block
	// and the most recent score must survive.
	for score := 100; score <= 2000; score += 100 {
		feed.Publish("g1", score)
	}

	var last int
	for {
		select {
		case got := <-ch:
			last = got.CurrentScore
			continue
		default:
		}
		break
	}
	if last != 2000 {
		t.Fatalf("latest score must be retained, got %d", last)
	}
}

func TestScoreFeedCancelStopsDelivery(t *testing.T) {
	feed := NewScoreFeed()
	ch, cancel := feed.Subscribe("g1")
	cancel()

	feed.Publish("g1", 400)

	if got, ok := <-ch; ok {
		t.Fatalf("closed subscription received %+v", got)
	}

	// Cancelling twice is safe.
	cancel()
}
