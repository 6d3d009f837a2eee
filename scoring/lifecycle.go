package scoring

import (
	"context"
	"fmt"
	"time"

	"cricket-score-service/logger"
)

// LifecycleStore 生命周期控制器在 Store 之上需要的持久化能力
type LifecycleStore interface {
	Store
	CreateMatch(ctx context.Context, m Match, first, second Innings) (Match, error)
	UpdateMatch(ctx context.Context, m Match) error
	TeamExists(ctx context.Context, teamID int64) (bool, error)
	RecordTeamResult(ctx context.Context, winnerID, loserID int64, tie bool) error
}

// Lifecycle 比赛生命周期控制器：串联一场比赛的两局
// 保证同一比赛任何时刻至多一个 in_progress 的局，
// 第二局只能在第一局 completed 之后开始
type Lifecycle struct {
	store     LifecycleStore
	engine    *Engine
	publisher Publisher
}

// NewLifecycle 创建生命周期控制器
func NewLifecycle(store LifecycleStore, engine *Engine, publisher Publisher) *Lifecycle {
	return &Lifecycle{store: store, engine: engine, publisher: publisher}
}

func (l *Lifecycle) publish(ev Event) {
	if l.publisher != nil {
		l.publisher.Publish(ev)
	}
}

// CreateMatch 建赛并同时建好两局 (比赛拥有它的两个局)
// 攻防分配先按 team1 先攻占位，开赛时按掷币结果落定
func (l *Lifecycle) CreateMatch(ctx context.Context, team1ID, team2ID int64, venue string, matchDate time.Time, format MatchFormat, oversPerInnings int) (Match, error) {
	if team1ID == team2ID {
		return Match{}, fmt.Errorf("%w: a match needs two distinct teams", ErrInvalidEvent)
	}
	for _, teamID := range []int64{team1ID, team2ID} {
		ok, err := l.store.TeamExists(ctx, teamID)
		if err != nil {
			return Match{}, err
		}
		if !ok {
			return Match{}, fmt.Errorf("%w: team %d", ErrTeamNotFound, teamID)
		}
	}

	switch format {
	case FormatT20, FormatODI, FormatTest:
	default:
		return Match{}, fmt.Errorf("%w: unknown match type %q", ErrInvalidEvent, format)
	}
	if oversPerInnings <= 0 {
		oversPerInnings = format.DefaultOvers()
	}

	m := Match{
		Team1ID:         team1ID,
		Team2ID:         team2ID,
		Venue:           venue,
		MatchDate:       matchDate,
		Format:          format,
		OversPerInnings: oversPerInnings,
		Status:          MatchUpcoming,
		CurrentInnings:  1,
	}
	first := Innings{BattingTeamID: team1ID, BowlingTeamID: team2ID, Number: 1, Status: InningsNotStarted}
	second := Innings{BattingTeamID: team2ID, BowlingTeamID: team1ID, Number: 2, Status: InningsNotStarted}

	created, err := l.store.CreateMatch(ctx, m, first, second)
	if err != nil {
		return Match{}, err
	}

	logger.Printf("[Lifecycle] Match %d created: teams %d vs %d at %s", created.ID, team1ID, team2ID, venue)
	return created, nil
}

// StartMatch 记录掷币结果，比赛转 live，第一局转 in_progress
func (l *Lifecycle) StartMatch(ctx context.Context, matchID, tossWinnerID int64, tossDecision TossDecision) (Match, error) {
	m, err := l.store.GetMatch(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	switch m.Status {
	case MatchUpcoming:
	case MatchCompleted, MatchAbandoned:
		return Match{}, ErrMatchCompleted
	default:
		return Match{}, ErrMatchAlreadyStarted
	}

	if tossWinnerID != m.Team1ID && tossWinnerID != m.Team2ID {
		return Match{}, fmt.Errorf("%w: toss winner %d is not in this match", ErrInvalidEvent, tossWinnerID)
	}
	if tossDecision != TossBat && tossDecision != TossBowl {
		return Match{}, fmt.Errorf("%w: unknown toss decision %q", ErrInvalidEvent, tossDecision)
	}

	// 按掷币结果落定先攻方
	battingFirst := tossWinnerID
	if tossDecision == TossBowl {
		battingFirst = m.Team1ID
		if tossWinnerID == m.Team1ID {
			battingFirst = m.Team2ID
		}
	}
	bowlingFirst := m.Team1ID
	if battingFirst == m.Team1ID {
		bowlingFirst = m.Team2ID
	}

	first, err := l.store.GetInningsByNumber(ctx, m.ID, 1)
	if err != nil {
		return Match{}, err
	}
	second, err := l.store.GetInningsByNumber(ctx, m.ID, 2)
	if err != nil {
		return Match{}, err
	}

	if _, err := l.engine.AssignTeams(ctx, first.ID, battingFirst, bowlingFirst); err != nil {
		return Match{}, err
	}
	if _, err := l.engine.AssignTeams(ctx, second.ID, bowlingFirst, battingFirst); err != nil {
		return Match{}, err
	}

	m.Status = MatchLive
	m.TossWinnerID = tossWinnerID
	m.TossDecision = tossDecision
	m.CurrentInnings = 1
	if err := l.store.UpdateMatch(ctx, m); err != nil {
		return Match{}, err
	}

	if _, err := l.engine.StartInnings(ctx, first.ID); err != nil {
		return Match{}, err
	}

	l.publish(Event{Type: EventMatchStarted, MatchID: m.ID, Payload: m})
	logger.Printf("[Lifecycle] Match %d started, team %d batting first", m.ID, battingFirst)

	return m, nil
}

// EndInnings 收掉当前局：第一局收掉后激活第二局，
// 第二局收掉后比赛转 completed 并推导结果
func (l *Lifecycle) EndInnings(ctx context.Context, matchID int64) (Match, error) {
	m, err := l.store.GetMatch(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != MatchLive {
		return Match{}, ErrMatchNotLive
	}

	current, err := l.store.GetInningsByNumber(ctx, m.ID, m.CurrentInnings)
	if err != nil {
		return Match{}, err
	}

	// 10 个三柱门时引擎已经收局，这里幂等收尾
	if _, err := l.engine.CompleteInnings(ctx, current.ID); err != nil {
		return Match{}, err
	}

	if m.CurrentInnings == 1 {
		second, err := l.store.GetInningsByNumber(ctx, m.ID, 2)
		if err != nil {
			return Match{}, err
		}

		m.CurrentInnings = 2
		if err := l.store.UpdateMatch(ctx, m); err != nil {
			return Match{}, err
		}
		if _, err := l.engine.StartInnings(ctx, second.ID); err != nil {
			return Match{}, err
		}

		l.publish(Event{Type: EventInningsEnd, MatchID: m.ID, Payload: map[string]interface{}{
			"match":          m,
			"innings_number": 1,
		}})
		logger.Printf("[Lifecycle] Match %d: first innings ended, second innings started", m.ID)
		return m, nil
	}

	// 第二局收掉：推导结果并终局
	first, err := l.store.GetInningsByNumber(ctx, m.ID, 1)
	if err != nil {
		return Match{}, err
	}
	second, err := l.store.GetInnings(ctx, current.ID)
	if err != nil {
		return Match{}, err
	}

	winnerID, resultType, margin := computeResult(first, second)
	m.Status = MatchCompleted
	m.WinnerID = winnerID
	m.ResultType = resultType
	m.ResultMargin = margin
	if err := l.store.UpdateMatch(ctx, m); err != nil {
		return Match{}, err
	}

	// 球队胜负计数
	loserID := m.Team1ID
	if winnerID == m.Team1ID {
		loserID = m.Team2ID
	}
	if resultType == ResultTie {
		err = l.store.RecordTeamResult(ctx, m.Team1ID, m.Team2ID, true)
	} else {
		err = l.store.RecordTeamResult(ctx, winnerID, loserID, false)
	}
	if err != nil {
		logger.Errorf("[Lifecycle] Failed to record team results for match %d: %v", m.ID, err)
	}

	l.publish(Event{Type: EventMatchComplete, MatchID: m.ID, Payload: m})
	logger.Printf("[Lifecycle] Match %d completed: winner=%d result=%s margin=%d", m.ID, winnerID, resultType, margin)

	return m, nil
}
