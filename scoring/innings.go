package scoring

import "fmt"

// InningsStatus 局状态
type InningsStatus string

const (
	InningsNotStarted InningsStatus = "not_started"
	InningsInProgress InningsStatus = "in_progress"
	InningsCompleted  InningsStatus = "completed"
)

// BatsmanSlot 当前击球手槽位 (最多两个，恰好一个在击)
// PlayerID 为 0 表示槽位空缺，等待新击球手
type BatsmanSlot struct {
	PlayerID   int64 `json:"player_id"`
	Runs       int   `json:"runs"`
	Balls      int   `json:"balls"`
	Fours      int   `json:"fours"`
	Sixes      int   `json:"sixes"`
	IsOnStrike bool  `json:"is_on_strike"`
}

// BowlerSlot 当前投球手槽位及其本局数字
type BowlerSlot struct {
	PlayerID int64 `json:"player_id"`
	Balls    int   `json:"balls"`
	Runs     int   `json:"runs"`
	Wickets  int   `json:"wickets"`
	Maidens  int   `json:"maidens"`
	// OverRuns 当前 over 内已失分，over 收尾时用于判定 maiden 后清零
	OverRuns int `json:"over_runs"`
}

// Overs 投球手已投 over 数的展示形式，如 "3.4"
func (b BowlerSlot) Overs() string {
	return fmt.Sprintf("%d.%d", b.Balls/6, b.Balls%6)
}

// Innings 一局的聚合状态
// 值类型：applyDelivery 在副本上计算新状态，持久化成功后才对外可见
type Innings struct {
	ID            int64          `json:"id"`
	MatchID       int64          `json:"match_id"`
	BattingTeamID int64          `json:"batting_team_id"`
	BowlingTeamID int64          `json:"bowling_team_id"`
	Number        int            `json:"innings_number"`
	TotalRuns     int            `json:"total_runs"`
	TotalWickets  int            `json:"total_wickets"`
	TotalBalls    int            `json:"total_balls"`
	Extras        int            `json:"extras"`
	// Deliveries 统计所有投球事件（含 wide/noball），作为逐球记录的序号来源
	Deliveries     int            `json:"deliveries"`
	CurrentRunRate float64        `json:"current_run_rate"`
	Status         InningsStatus  `json:"status"`
	Batsmen        [2]BatsmanSlot `json:"current_batsmen"`
	Bowler         BowlerSlot     `json:"current_bowler"`
}

// OverNumber 当前 over 编号 (从 1 开始)
func (in Innings) OverNumber() int {
	return in.TotalBalls/6 + 1
}

// BallInOver 当前 over 内的球编号 (1..6)
func (in Innings) BallInOver() int {
	return in.TotalBalls%6 + 1
}

func (in Innings) strikerIndex() int {
	for i := range in.Batsmen {
		if in.Batsmen[i].IsOnStrike {
			return i
		}
	}
	return -1
}

func (in *Innings) rotateStrike() {
	i := in.strikerIndex()
	if i < 0 {
		return
	}
	in.Batsmen[i].IsOnStrike = false
	in.Batsmen[1-i].IsOnStrike = true
}

func runRate(runs, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return float64(runs) / float64(balls) * 6
}

// applyDelivery 把一次投球事件应用到局聚合上，返回新状态和追加的逐球记录
// 纯函数：不修改入参，所有不变式在此集中检查; maxBalls 为 0 表示无 over 上限
func applyDelivery(in Innings, ev DeliveryEvent, maxBalls int) (Innings, BallRecord, error) {
	if in.Status == InningsCompleted || in.TotalWickets >= 10 {
		return in, BallRecord{}, ErrInningsOver
	}
	if in.Status != InningsInProgress {
		return in, BallRecord{}, ErrInningsNotActive
	}
	if maxBalls > 0 && in.TotalBalls >= maxBalls {
		return in, BallRecord{}, ErrInningsOver
	}
	if err := ev.Validate(); err != nil {
		return in, BallRecord{}, err
	}

	ballsToAdd := ev.BallsToAdd()

	// over/ball 编号按增量前的 totalBalls 推导
	ball := BallRecord{
		InningsID:         in.ID,
		Seq:               in.Deliveries + 1,
		OverNumber:        in.TotalBalls/6 + 1,
		BallNumber:        in.TotalBalls%6 + 1,
		StrikerID:         ev.StrikerID,
		NonStrikerID:      ev.NonStrikerID,
		BowlerID:          ev.BowlerID,
		RunsOffBat:        ev.RunsOffBat,
		Extras:            ev.Extras,
		ExtraType:         ev.ExtraType,
		Wicket:            ev.Wicket,
		DismissalType:     ev.DismissalType,
		DismissedPlayerID: ev.DismissedPlayerID,
		FielderID:         ev.FielderID,
		Commentary:        ballCommentary(ev),
	}
	if ev.Wicket && ball.DismissedPlayerID == 0 {
		ball.DismissedPlayerID = ev.StrikerID
	}

	// 局总计
	in.Deliveries++
	in.TotalRuns += ev.TotalRuns()
	in.TotalBalls += ballsToAdd
	in.Extras += ev.Extras
	if ev.Wicket {
		in.TotalWickets++
	}
	in.CurrentRunRate = runRate(in.TotalRuns, in.TotalBalls)

	// 在击槽位
	if i := in.strikerIndex(); i >= 0 {
		s := &in.Batsmen[i]
		s.Runs += ev.RunsOffBat
		s.Balls += ballsToAdd
		if ev.RunsOffBat == 4 {
			s.Fours++
		} else if ev.RunsOffBat == 6 {
			s.Sixes++
		}
	}

	// 出局者腾出槽位，保留在击标记等待替补 (ReplaceBatsman)
	if ev.Wicket {
		for i := range in.Batsmen {
			if in.Batsmen[i].PlayerID == ball.DismissedPlayerID && in.Batsmen[i].PlayerID != 0 {
				onStrike := in.Batsmen[i].IsOnStrike
				in.Batsmen[i] = BatsmanSlot{IsOnStrike: onStrike}
			}
		}
	}

	// 投球手槽位
	if in.Bowler.PlayerID != 0 {
		in.Bowler.Balls += ballsToAdd
		in.Bowler.Runs += ev.TotalRuns()
		in.Bowler.OverRuns += ev.TotalRuns()
		if ev.CreditsBowler() {
			in.Bowler.Wickets++
		}
	}

	// 换边：奇数击球得分换一次; 合法球收尾一个 over 再换一次
	if ev.RunsOffBat%2 == 1 {
		in.rotateStrike()
	}
	if ballsToAdd == 1 && in.TotalBalls%6 == 0 {
		in.rotateStrike()
		if in.Bowler.PlayerID != 0 {
			if in.Bowler.OverRuns == 0 {
				in.Bowler.Maidens++
			}
			in.Bowler.OverRuns = 0
		}
	}

	// 第 10 个三柱门或 overs 用尽即收局，之后不再接受投球
	if in.TotalWickets >= 10 || (maxBalls > 0 && in.TotalBalls >= maxBalls) {
		in.Status = InningsCompleted
	}

	return in, ball, nil
}

// withBatsmen 设置两个击球手槽位，striker 在击
func (in Innings) withBatsmen(strikerID, nonStrikerID int64) (Innings, error) {
	if in.Status != InningsInProgress {
		return in, ErrInningsNotActive
	}
	if strikerID <= 0 || nonStrikerID <= 0 || strikerID == nonStrikerID {
		return in, fmt.Errorf("%w: two distinct batsmen required", ErrInvalidEvent)
	}
	in.Batsmen[0] = BatsmanSlot{PlayerID: strikerID, IsOnStrike: true}
	in.Batsmen[1] = BatsmanSlot{PlayerID: nonStrikerID}
	return in, nil
}

// withBowler 换投球手，新槽位从零计数
func (in Innings) withBowler(bowlerID int64) (Innings, error) {
	if in.Status != InningsInProgress {
		return in, ErrInningsNotActive
	}
	if bowlerID <= 0 {
		return in, fmt.Errorf("%w: bowler required", ErrInvalidEvent)
	}
	in.Bowler = BowlerSlot{PlayerID: bowlerID}
	return in, nil
}

// withReplacementBatsman 新击球手补进空槽位，继承其在击标记
func (in Innings) withReplacementBatsman(playerID int64) (Innings, error) {
	if in.Status != InningsInProgress {
		return in, ErrInningsNotActive
	}
	if playerID <= 0 {
		return in, fmt.Errorf("%w: batsman required", ErrInvalidEvent)
	}
	for i := range in.Batsmen {
		if in.Batsmen[i].PlayerID == 0 {
			onStrike := in.Batsmen[i].IsOnStrike
			in.Batsmen[i] = BatsmanSlot{PlayerID: playerID, IsOnStrike: onStrike}
			return in, nil
		}
	}
	return in, fmt.Errorf("%w: no open batsman slot", ErrInvalidEvent)
}
