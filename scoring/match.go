package scoring

import "time"

// MatchStatus 比赛状态
type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	MatchAbandoned MatchStatus = "abandoned"
)

// MatchFormat 赛制，决定每局 over 数上限
type MatchFormat string

const (
	FormatT20  MatchFormat = "T20"
	FormatODI  MatchFormat = "ODI"
	FormatTest MatchFormat = "Test"
)

// DefaultOvers 赛制的默认每局 over 数 (Test 无上限返回 0)
func (f MatchFormat) DefaultOvers() int {
	switch f {
	case FormatT20:
		return 20
	case FormatODI:
		return 50
	default:
		return 0
	}
}

// TossDecision 掷币选择
type TossDecision string

const (
	TossBat  TossDecision = "bat"
	TossBowl TossDecision = "bowl"
)

// ResultType 比赛结果类型
type ResultType string

const (
	ResultByRuns    ResultType = "runs"
	ResultByWickets ResultType = "wickets"
	ResultTie       ResultType = "tie"
	ResultNone      ResultType = "no_result"
)

// Match 比赛聚合：两支球队、场地、赛制与两局的推进状态
type Match struct {
	ID              int64        `json:"id"`
	Team1ID         int64        `json:"team1_id"`
	Team2ID         int64        `json:"team2_id"`
	Venue           string       `json:"venue"`
	MatchDate       time.Time    `json:"match_date"`
	Format          MatchFormat  `json:"match_type"`
	OversPerInnings int          `json:"overs_per_innings"`
	Status          MatchStatus  `json:"status"`
	TossWinnerID    int64        `json:"toss_winner_id,omitempty"`
	TossDecision    TossDecision `json:"toss_decision,omitempty"`
	WinnerID        int64        `json:"winner_id,omitempty"`
	ResultType      ResultType   `json:"result_type,omitempty"`
	ResultMargin    int          `json:"result_margin,omitempty"`
	CurrentInnings  int          `json:"current_innings"`
}

// MaxBalls 每局的合法球数上限 (0 = 无上限)
func (m Match) MaxBalls() int {
	return m.OversPerInnings * 6
}

// computeResult 根据两局总分推导结果：先攻方赢按 runs 计差距，
// 后攻方赢按剩余三柱门数计，平分为 tie
func computeResult(first, second Innings) (winnerID int64, resultType ResultType, margin int) {
	switch {
	case first.TotalRuns > second.TotalRuns:
		return first.BattingTeamID, ResultByRuns, first.TotalRuns - second.TotalRuns
	case second.TotalRuns > first.TotalRuns:
		return second.BattingTeamID, ResultByWickets, 10 - second.TotalWickets
	default:
		return 0, ResultTie, 0
	}
}
