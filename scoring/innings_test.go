package scoring

import (
	"errors"
	"testing"
)

func activeInnings() Innings {
	return Innings{
		ID:            1,
		MatchID:       1,
		BattingTeamID: 10,
		BowlingTeamID: 20,
		Number:        1,
		Status:        InningsInProgress,
		Batsmen: [2]BatsmanSlot{
			{PlayerID: 101, IsOnStrike: true},
			{PlayerID: 102},
		},
		Bowler: BowlerSlot{PlayerID: 201},
	}
}

func legalBall(runs int) DeliveryEvent {
	return DeliveryEvent{
		StrikerID:     101,
		NonStrikerID:  102,
		BowlerID:      201,
		RunsOffBat:    runs,
		ExtraType:     ExtraNone,
		DismissalType: DismissalNone,
	}
}

func TestApplyDeliveryBoundary(t *testing.T) {
	in := activeInnings()

	next, ball, err := applyDelivery(in, legalBall(4), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.TotalRuns != 4 {
		t.Errorf("Expected total runs 4, got %d", next.TotalRuns)
	}
	if next.TotalBalls != 1 {
		t.Errorf("Expected total balls 1, got %d", next.TotalBalls)
	}
	if next.CurrentRunRate != 24.0 {
		t.Errorf("Expected run rate 24.0, got %f", next.CurrentRunRate)
	}

	striker := next.Batsmen[0]
	if striker.Runs != 4 || striker.Balls != 1 || striker.Fours != 1 {
		t.Errorf("Expected striker 4 runs, 1 ball, 1 four, got %+v", striker)
	}

	if ball.Seq != 1 || ball.OverNumber != 1 || ball.BallNumber != 1 {
		t.Errorf("Expected seq 1 over 1 ball 1, got seq %d over %d ball %d", ball.Seq, ball.OverNumber, ball.BallNumber)
	}

	// 入参不被修改
	if in.TotalRuns != 0 || in.TotalBalls != 0 {
		t.Errorf("Expected original innings untouched, got %d/%d", in.TotalRuns, in.TotalBalls)
	}
}

func TestApplyDeliveryWide(t *testing.T) {
	in := activeInnings()

	ev := legalBall(0)
	ev.ExtraType = ExtraWide
	ev.Extras = 1

	next, ball, err := applyDelivery(in, ev, 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.TotalRuns != 1 {
		t.Errorf("Expected total runs 1, got %d", next.TotalRuns)
	}
	if next.TotalBalls != 0 {
		t.Errorf("Expected wide to add no balls, got %d", next.TotalBalls)
	}
	if next.Extras != 1 {
		t.Errorf("Expected extras 1, got %d", next.Extras)
	}
	if next.Batsmen[0].Balls != 0 {
		t.Errorf("Expected striker to face no ball on a wide, got %d", next.Batsmen[0].Balls)
	}
	if ball.Seq != 1 {
		t.Errorf("Expected wide to consume seq 1, got %d", ball.Seq)
	}

	// 下一个合法球仍是第 1 over 第 1 球
	next2, ball2, err := applyDelivery(next, legalBall(0), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ball2.OverNumber != 1 || ball2.BallNumber != 1 {
		t.Errorf("Expected over 1 ball 1 after wide, got over %d ball %d", ball2.OverNumber, ball2.BallNumber)
	}
	if ball2.Seq != 2 {
		t.Errorf("Expected seq 2, got %d", ball2.Seq)
	}
	if next2.TotalBalls != 1 {
		t.Errorf("Expected total balls 1, got %d", next2.TotalBalls)
	}
}

func TestStrikeRotationOnOddRuns(t *testing.T) {
	in := activeInnings()

	next, _, err := applyDelivery(in, legalBall(1), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.Batsmen[0].IsOnStrike {
		t.Error("Expected striker to rotate off strike after a single")
	}
	if !next.Batsmen[1].IsOnStrike {
		t.Error("Expected non-striker to be on strike after a single")
	}
}

func TestStrikeRotationAtEndOfOver(t *testing.T) {
	in := activeInnings()

	var err error
	for i := 0; i < 6; i++ {
		in, _, err = applyDelivery(in, legalBall(0), 120)
		if err != nil {
			t.Fatalf("Ball %d: expected no error, got %v", i+1, err)
		}
	}

	if in.TotalBalls != 6 {
		t.Fatalf("Expected 6 balls, got %d", in.TotalBalls)
	}
	if in.Batsmen[0].IsOnStrike {
		t.Error("Expected strike to rotate at the end of the over")
	}
	if in.Bowler.Maidens != 1 {
		t.Errorf("Expected a maiden over, got %d", in.Bowler.Maidens)
	}
	if in.Bowler.OverRuns != 0 {
		t.Errorf("Expected over runs reset, got %d", in.Bowler.OverRuns)
	}

	// 第 7 球属于第 2 over
	_, ball, err := applyDelivery(in, legalBall(0), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ball.OverNumber != 2 || ball.BallNumber != 1 {
		t.Errorf("Expected over 2 ball 1, got over %d ball %d", ball.OverNumber, ball.BallNumber)
	}
}

func TestSingleOffLastBallKeepsStriker(t *testing.T) {
	in := activeInnings()
	in.TotalBalls = 5
	in.Deliveries = 5

	// 奇数分换一次，over 收尾再换一次，净效果是原击球手继续在击
	next, _, err := applyDelivery(in, legalBall(1), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !next.Batsmen[0].IsOnStrike {
		t.Error("Expected striker to keep strike after a single off the last ball")
	}
}

func TestWideDoesNotEndOver(t *testing.T) {
	in := activeInnings()
	in.TotalBalls = 5
	in.Deliveries = 5

	ev := legalBall(0)
	ev.ExtraType = ExtraWide
	ev.Extras = 1

	next, _, err := applyDelivery(in, ev, 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.TotalBalls != 5 {
		t.Errorf("Expected total balls to stay at 5, got %d", next.TotalBalls)
	}
	if !next.Batsmen[0].IsOnStrike {
		t.Error("Expected no strike rotation on a wide")
	}
	if next.Bowler.Maidens != 0 {
		t.Errorf("Expected no maiden, got %d", next.Bowler.Maidens)
	}
}

func TestNoMaidenWhenRunsConceded(t *testing.T) {
	in := activeInnings()

	var err error
	in, _, err = applyDelivery(in, legalBall(2), 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i := 0; i < 5; i++ {
		in, _, err = applyDelivery(in, legalBall(0), 120)
		if err != nil {
			t.Fatalf("Ball %d: expected no error, got %v", i+2, err)
		}
	}

	if in.Bowler.Maidens != 0 {
		t.Errorf("Expected no maiden after conceding runs, got %d", in.Bowler.Maidens)
	}
	if in.Bowler.OverRuns != 0 {
		t.Errorf("Expected over runs reset at end of over, got %d", in.Bowler.OverRuns)
	}
}

func TestWicketClearsSlotAndKeepsStrikeFlag(t *testing.T) {
	in := activeInnings()

	ev := legalBall(0)
	ev.Wicket = true
	ev.DismissalType = DismissalBowled

	next, ball, err := applyDelivery(in, ev, 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.TotalWickets != 1 {
		t.Errorf("Expected 1 wicket, got %d", next.TotalWickets)
	}
	if ball.DismissedPlayerID != 101 {
		t.Errorf("Expected striker to be the default dismissed player, got %d", ball.DismissedPlayerID)
	}
	if next.Batsmen[0].PlayerID != 0 {
		t.Errorf("Expected dismissed slot to be vacated, got player %d", next.Batsmen[0].PlayerID)
	}
	if !next.Batsmen[0].IsOnStrike {
		t.Error("Expected vacated slot to keep the strike flag for the replacement")
	}
	if next.Bowler.Wickets != 1 {
		t.Errorf("Expected bowler credited with the wicket, got %d", next.Bowler.Wickets)
	}

	// 替补继承在击标记
	replaced, err := next.withReplacementBatsman(103)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if replaced.Batsmen[0].PlayerID != 103 || !replaced.Batsmen[0].IsOnStrike {
		t.Errorf("Expected replacement on strike, got %+v", replaced.Batsmen[0])
	}
}

func TestRunOutDoesNotCreditBowler(t *testing.T) {
	in := activeInnings()

	ev := legalBall(1)
	ev.Wicket = true
	ev.DismissalType = DismissalRunOut
	ev.DismissedPlayerID = 102
	ev.FielderID = 205

	next, _, err := applyDelivery(in, ev, 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if next.Bowler.Wickets != 0 {
		t.Errorf("Expected run out not credited to bowler, got %d", next.Bowler.Wickets)
	}
	if next.Batsmen[1].PlayerID != 0 {
		t.Errorf("Expected non-striker slot vacated, got player %d", next.Batsmen[1].PlayerID)
	}
}

func TestTenthWicketCompletesInnings(t *testing.T) {
	in := activeInnings()
	in.TotalWickets = 9

	ev := legalBall(0)
	ev.Wicket = true
	ev.DismissalType = DismissalCaught
	ev.FielderID = 203

	next, _, err := applyDelivery(in, ev, 120)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if next.Status != InningsCompleted {
		t.Errorf("Expected innings completed after 10th wicket, got %s", next.Status)
	}

	// 收局后不再接受投球
	_, _, err = applyDelivery(next, legalBall(0), 120)
	if !errors.Is(err, ErrInningsOver) {
		t.Errorf("Expected ErrInningsOver, got %v", err)
	}
}

func TestMaxBallsCompletesInnings(t *testing.T) {
	in := activeInnings()
	in.TotalBalls = 5
	in.Deliveries = 5

	next, _, err := applyDelivery(in, legalBall(0), 6)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if next.Status != InningsCompleted {
		t.Errorf("Expected innings completed at overs limit, got %s", next.Status)
	}

	_, _, err = applyDelivery(next, legalBall(0), 6)
	if !errors.Is(err, ErrInningsOver) {
		t.Errorf("Expected ErrInningsOver, got %v", err)
	}
}

func TestApplyDeliveryRequiresActiveInnings(t *testing.T) {
	in := activeInnings()
	in.Status = InningsNotStarted

	_, _, err := applyDelivery(in, legalBall(0), 120)
	if !errors.Is(err, ErrInningsNotActive) {
		t.Errorf("Expected ErrInningsNotActive, got %v", err)
	}
}

func TestInvalidEventLeavesInningsUnchanged(t *testing.T) {
	in := activeInnings()

	ev := legalBall(-1)
	next, _, err := applyDelivery(in, ev, 120)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("Expected ErrInvalidEvent, got %v", err)
	}
	if next != in {
		t.Error("Expected innings unchanged after rejected event")
	}
}

func TestWithBatsmen(t *testing.T) {
	in := activeInnings()

	next, err := in.withBatsmen(111, 112)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if next.Batsmen[0].PlayerID != 111 || !next.Batsmen[0].IsOnStrike {
		t.Errorf("Expected striker 111 on strike, got %+v", next.Batsmen[0])
	}
	if next.Batsmen[1].PlayerID != 112 || next.Batsmen[1].IsOnStrike {
		t.Errorf("Expected non-striker 112 off strike, got %+v", next.Batsmen[1])
	}

	if _, err := in.withBatsmen(111, 111); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Expected ErrInvalidEvent for duplicate batsmen, got %v", err)
	}
}

func TestBowlerOvers(t *testing.T) {
	b := BowlerSlot{Balls: 22}
	if b.Overs() != "3.4" {
		t.Errorf("Expected overs '3.4', got '%s'", b.Overs())
	}
}
