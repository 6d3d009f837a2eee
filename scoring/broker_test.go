package scoring

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewEventBroker(4)
	defer b.Close()

	ch := b.Subscribe()
	b.Publish(Event{Type: EventScoreUpdate, MatchID: 1})

	select {
	case ev := <-ch:
		if ev.Type != EventScoreUpdate || ev.MatchID != 1 {
			t.Errorf("Unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected to receive the published event")
	}
}

func TestBrokerDropsOldestWhenFull(t *testing.T) {
	b := NewEventBroker(1)
	defer b.Close()

	ch := b.Subscribe()

	// 订阅者不消费：第二次发布应挤掉第一条
	b.Publish(Event{Type: EventScoreUpdate, MatchID: 1})
	b.Publish(Event{Type: EventScoreUpdate, MatchID: 2})

	select {
	case ev := <-ch:
		if ev.MatchID != 2 {
			t.Errorf("Expected newest event to survive, got match %d", ev.MatchID)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected to receive an event")
	}

	select {
	case ev := <-ch:
		t.Errorf("Expected oldest event dropped, got match %d", ev.MatchID)
	default:
	}
}

func TestBrokerCloseClosesSubscribers(t *testing.T) {
	b := NewEventBroker(4)
	ch := b.Subscribe()

	b.Close()

	if _, ok := <-ch; ok {
		t.Error("Expected subscriber channel to be closed")
	}

	// 关闭后发布不能 panic
	b.Publish(Event{Type: EventScoreUpdate, MatchID: 1})
	b.Close()
}
