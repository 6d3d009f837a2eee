package scoring

import (
	"errors"
	"testing"
)

func TestDeliveryEventValidate(t *testing.T) {
	valid := DeliveryEvent{
		StrikerID:     101,
		NonStrikerID:  102,
		BowlerID:      201,
		RunsOffBat:    4,
		ExtraType:     ExtraNone,
		DismissalType: DismissalNone,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid event, got %v", err)
	}

	cases := []struct {
		name   string
		modify func(*DeliveryEvent)
	}{
		{"missing striker", func(e *DeliveryEvent) { e.StrikerID = 0 }},
		{"missing bowler", func(e *DeliveryEvent) { e.BowlerID = 0 }},
		{"striker equals non-striker", func(e *DeliveryEvent) { e.NonStrikerID = e.StrikerID }},
		{"negative runs", func(e *DeliveryEvent) { e.RunsOffBat = -1 }},
		{"negative extras", func(e *DeliveryEvent) { e.ExtraType = ExtraWide; e.RunsOffBat = 0; e.Extras = -1 }},
		{"extras without extra type", func(e *DeliveryEvent) { e.Extras = 1 }},
		{"runs off bat on a wide", func(e *DeliveryEvent) { e.ExtraType = ExtraWide; e.Extras = 1 }},
		{"wide without extras", func(e *DeliveryEvent) { e.ExtraType = ExtraWide; e.RunsOffBat = 0 }},
		{"no-ball without extras", func(e *DeliveryEvent) { e.ExtraType = ExtraNoBall }},
		{"bye without extras", func(e *DeliveryEvent) { e.ExtraType = ExtraBye; e.RunsOffBat = 0 }},
		{"unknown extra type", func(e *DeliveryEvent) { e.ExtraType = "overthrow" }},
		{"unknown dismissal type", func(e *DeliveryEvent) { e.Wicket = true; e.DismissalType = "retired" }},
		{"wicket without dismissal type", func(e *DeliveryEvent) { e.Wicket = true }},
		{"dismissal type without wicket", func(e *DeliveryEvent) { e.DismissalType = DismissalBowled }},
	}

	for _, tc := range cases {
		ev := valid
		tc.modify(&ev)
		if err := ev.Validate(); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%s: expected ErrInvalidEvent, got %v", tc.name, err)
		}
	}
}

func TestDeliveryEventBallsToAdd(t *testing.T) {
	legal := DeliveryEvent{ExtraType: ExtraNone}
	if legal.BallsToAdd() != 1 {
		t.Errorf("Expected legal ball to add 1, got %d", legal.BallsToAdd())
	}

	for _, extra := range []ExtraType{ExtraWide, ExtraNoBall} {
		ev := DeliveryEvent{ExtraType: extra}
		if ev.BallsToAdd() != 0 {
			t.Errorf("Expected %s to add 0 balls, got %d", extra, ev.BallsToAdd())
		}
	}

	for _, extra := range []ExtraType{ExtraBye, ExtraLegBye} {
		ev := DeliveryEvent{ExtraType: extra}
		if ev.BallsToAdd() != 1 {
			t.Errorf("Expected %s to add 1 ball, got %d", extra, ev.BallsToAdd())
		}
	}
}

func TestDeliveryEventCreditsBowler(t *testing.T) {
	bowled := DeliveryEvent{Wicket: true, DismissalType: DismissalBowled}
	if !bowled.CreditsBowler() {
		t.Error("Expected bowled to credit the bowler")
	}

	runOut := DeliveryEvent{Wicket: true, DismissalType: DismissalRunOut}
	if runOut.CreditsBowler() {
		t.Error("Expected run out not to credit the bowler")
	}
}

func TestBallRecordFoldKey(t *testing.T) {
	ball := BallRecord{InningsID: 7, Seq: 42}
	if ball.FoldKey() != "7:42" {
		t.Errorf("Expected fold key '7:42', got '%s'", ball.FoldKey())
	}
}
