package database

import (
	"time"
)

// Team 球队记录
type Team struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ShortName     string    `db:"short_name" json:"short_name"`
	Captain       *string   `db:"captain" json:"captain,omitempty"`
	Coach         *string   `db:"coach" json:"coach,omitempty"`
	HomeGround    *string   `db:"home_ground" json:"home_ground,omitempty"`
	MatchesPlayed int       `db:"matches_played" json:"matches_played"`
	MatchesWon    int       `db:"matches_won" json:"matches_won"`
	MatchesLost   int       `db:"matches_lost" json:"matches_lost"`
	MatchesTied   int       `db:"matches_tied" json:"matches_tied"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Player 球员记录
// 累计计数器是统计的唯一真值，比率字段不落库，读取时用下面的方法推导
type Player struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	TeamID        int64     `db:"team_id" json:"team_id"`
	JerseyNumber  *int      `db:"jersey_number" json:"jersey_number,omitempty"`
	Role          string    `db:"role" json:"role"`
	BattingStyle  string    `db:"batting_style" json:"batting_style"`
	BowlingStyle  *string   `db:"bowling_style" json:"bowling_style,omitempty"`
	MatchesPlayed int       `db:"matches_played" json:"matches_played"`
	TotalRuns     int       `db:"total_runs" json:"total_runs"`
	BallsFaced    int       `db:"balls_faced" json:"balls_faced"`
	Fours         int       `db:"fours" json:"fours"`
	Sixes         int       `db:"sixes" json:"sixes"`
	TotalWickets  int       `db:"total_wickets" json:"total_wickets"`
	BallsBowled   int       `db:"balls_bowled" json:"balls_bowled"`
	RunsConceded  int       `db:"runs_conceded" json:"runs_conceded"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// BattingAverage 击球平均分 (总得分/总面对球数)
func (p *Player) BattingAverage() float64 {
	if p.BallsFaced == 0 {
		return 0
	}
	return float64(p.TotalRuns) / float64(p.BallsFaced)
}

// StrikeRate 击球率 (每百球得分)
func (p *Player) StrikeRate() float64 {
	if p.BallsFaced == 0 {
		return 0
	}
	return float64(p.TotalRuns) / float64(p.BallsFaced) * 100
}

// BowlingAverage 投球平均分 (每个三柱门失分)
func (p *Player) BowlingAverage() float64 {
	if p.TotalWickets == 0 {
		return 0
	}
	return float64(p.RunsConceded) / float64(p.TotalWickets)
}

// EconomyRate 经济率 (每 over 失分)
func (p *Player) EconomyRate() float64 {
	if p.BallsBowled == 0 {
		return 0
	}
	overs := float64(p.BallsBowled) / 6
	return float64(p.RunsConceded) / overs
}
