package scoring

import (
	"errors"
	"testing"
)

func foldOK(batting, bowling PlayerDelta) error {
	return nil
}

func TestFoldComputesDeltas(t *testing.T) {
	p := NewStatProjector()

	ball := BallRecord{
		InningsID:  1,
		Seq:        1,
		StrikerID:  101,
		BowlerID:   201,
		RunsOffBat: 4,
		ExtraType:  ExtraNone,
	}

	var batting, bowling PlayerDelta
	err := p.Fold(ball, 1, func(b, bw PlayerDelta) error {
		batting, bowling = b, bw
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if batting.PlayerID != 101 || batting.Runs != 4 || batting.BallsFaced != 1 || batting.Fours != 1 {
		t.Errorf("Unexpected batting delta: %+v", batting)
	}
	if batting.MatchesPlayed != 1 {
		t.Errorf("Expected first appearance to count a match, got %d", batting.MatchesPlayed)
	}
	if bowling.PlayerID != 201 || bowling.BallsBowled != 1 || bowling.RunsConceded != 4 || bowling.Wickets != 0 {
		t.Errorf("Unexpected bowling delta: %+v", bowling)
	}
}

func TestFoldWideDelta(t *testing.T) {
	p := NewStatProjector()

	ball := BallRecord{
		InningsID: 1,
		Seq:       1,
		StrikerID: 101,
		BowlerID:  201,
		Extras:    1,
		ExtraType: ExtraWide,
	}

	var batting, bowling PlayerDelta
	err := p.Fold(ball, 1, func(b, bw PlayerDelta) error {
		batting, bowling = b, bw
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if batting.BallsFaced != 0 {
		t.Errorf("Expected wide not to count a ball faced, got %d", batting.BallsFaced)
	}
	if bowling.BallsBowled != 0 {
		t.Errorf("Expected wide not to count a ball bowled, got %d", bowling.BallsBowled)
	}
	if bowling.RunsConceded != 1 {
		t.Errorf("Expected wide extra charged to the bowler, got %d", bowling.RunsConceded)
	}
}

func TestFoldRunOutNotCreditedToBowler(t *testing.T) {
	p := NewStatProjector()

	ball := BallRecord{
		InningsID:     1,
		Seq:           1,
		StrikerID:     101,
		BowlerID:      201,
		RunsOffBat:    1,
		ExtraType:     ExtraNone,
		Wicket:        true,
		DismissalType: DismissalRunOut,
	}

	var bowling PlayerDelta
	err := p.Fold(ball, 1, func(b, bw PlayerDelta) error {
		bowling = bw
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if bowling.Wickets != 0 {
		t.Errorf("Expected run out not credited to bowler, got %d", bowling.Wickets)
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	p := NewStatProjector()

	ball := BallRecord{InningsID: 1, Seq: 1, StrikerID: 101, BowlerID: 201, ExtraType: ExtraNone}

	if err := p.Fold(ball, 1, foldOK); err != nil {
		t.Fatalf("Expected first fold to succeed, got %v", err)
	}

	err := p.Fold(ball, 1, foldOK)
	if !errors.Is(err, ErrDeliveryAlreadyFolded) {
		t.Errorf("Expected ErrDeliveryAlreadyFolded, got %v", err)
	}
}

func TestFoldPersistFailureAllowsRetry(t *testing.T) {
	p := NewStatProjector()

	ball := BallRecord{InningsID: 1, Seq: 1, StrikerID: 101, BowlerID: 201, ExtraType: ExtraNone}

	persistErr := errors.New("db down")
	err := p.Fold(ball, 1, func(b, bw PlayerDelta) error {
		return persistErr
	})
	if !errors.Is(err, persistErr) {
		t.Fatalf("Expected persist error to surface, got %v", err)
	}

	// 失败的折叠不留痕：重试仍带首次出场增量
	var batting PlayerDelta
	err = p.Fold(ball, 1, func(b, bw PlayerDelta) error {
		batting = b
		return nil
	})
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if batting.MatchesPlayed != 1 {
		t.Errorf("Expected retry to still count first appearance, got %d", batting.MatchesPlayed)
	}
}

func TestMatchesPlayedOncePerMatch(t *testing.T) {
	p := NewStatProjector()

	first := BallRecord{InningsID: 1, Seq: 1, StrikerID: 101, BowlerID: 201, ExtraType: ExtraNone}
	second := BallRecord{InningsID: 1, Seq: 2, StrikerID: 101, BowlerID: 201, ExtraType: ExtraNone}

	if err := p.Fold(first, 1, foldOK); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var batting, bowling PlayerDelta
	err := p.Fold(second, 1, func(b, bw PlayerDelta) error {
		batting, bowling = b, bw
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if batting.MatchesPlayed != 0 || bowling.MatchesPlayed != 0 {
		t.Errorf("Expected no repeated appearance in the same match, got %d/%d", batting.MatchesPlayed, bowling.MatchesPlayed)
	}

	// 另一场比赛重新计一次出场
	other := BallRecord{InningsID: 3, Seq: 1, StrikerID: 101, BowlerID: 201, ExtraType: ExtraNone}
	err = p.Fold(other, 2, func(b, bw PlayerDelta) error {
		batting = b
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if batting.MatchesPlayed != 1 {
		t.Errorf("Expected new match to count an appearance, got %d", batting.MatchesPlayed)
	}
}

func TestPlayerDeltaIsZero(t *testing.T) {
	if !(PlayerDelta{PlayerID: 5}).IsZero() {
		t.Error("Expected delta with only an ID to be zero")
	}
	if (PlayerDelta{PlayerID: 5, Runs: 1}).IsZero() {
		t.Error("Expected delta with runs to be non-zero")
	}
}
