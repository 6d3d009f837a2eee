package database

import "testing"

func TestPlayerBattingStats(t *testing.T) {
	p := &Player{TotalRuns: 120, BallsFaced: 80}

	if p.BattingAverage() != 1.5 {
		t.Errorf("Expected batting average 1.5, got %f", p.BattingAverage())
	}
	if p.StrikeRate() != 150.0 {
		t.Errorf("Expected strike rate 150.0, got %f", p.StrikeRate())
	}
}

func TestPlayerBowlingStats(t *testing.T) {
	p := &Player{RunsConceded: 90, TotalWickets: 3, BallsBowled: 60}

	if p.BowlingAverage() != 30.0 {
		t.Errorf("Expected bowling average 30.0, got %f", p.BowlingAverage())
	}
	if p.EconomyRate() != 9.0 {
		t.Errorf("Expected economy rate 9.0, got %f", p.EconomyRate())
	}
}

func TestPlayerStatsZeroGuards(t *testing.T) {
	p := &Player{}

	if p.BattingAverage() != 0 {
		t.Errorf("Expected 0 batting average without balls faced, got %f", p.BattingAverage())
	}
	if p.StrikeRate() != 0 {
		t.Errorf("Expected 0 strike rate without balls faced, got %f", p.StrikeRate())
	}
	if p.BowlingAverage() != 0 {
		t.Errorf("Expected 0 bowling average without wickets, got %f", p.BowlingAverage())
	}
	if p.EconomyRate() != 0 {
		t.Errorf("Expected 0 economy rate without balls bowled, got %f", p.EconomyRate())
	}
}
