package web

import "testing"

func TestClientShouldReceive(t *testing.T) {
	all := &Client{matchIDs: make(map[int64]bool)}
	if !all.shouldReceive(&WSMessage{Type: "score-update", MatchID: 7}) {
		t.Error("Expected client without filter to receive everything")
	}

	filtered := &Client{matchIDs: map[int64]bool{7: true}}
	if !filtered.shouldReceive(&WSMessage{Type: "score-update", MatchID: 7}) {
		t.Error("Expected subscribed match to be received")
	}
	if filtered.shouldReceive(&WSMessage{Type: "score-update", MatchID: 8}) {
		t.Error("Expected other matches to be filtered out")
	}
	if filtered.shouldReceive(&WSMessage{Type: "score-update"}) {
		t.Error("Expected unscoped message to be filtered out for subscribed client")
	}
}

func TestClientSubscribeMessage(t *testing.T) {
	c := &Client{matchIDs: make(map[int64]bool)}

	c.handleMessage([]byte(`{"type":"subscribe","match_ids":[3,5]}`))
	if !c.matchIDs[3] || !c.matchIDs[5] {
		t.Errorf("Expected subscription to matches 3 and 5, got %v", c.matchIDs)
	}

	c.handleMessage([]byte(`{"type":"unsubscribe"}`))
	if len(c.matchIDs) != 0 {
		t.Errorf("Expected empty filter after unsubscribe, got %v", c.matchIDs)
	}
}
