package scoring

import (
	"context"
	"sync"

	"cricket-score-service/logger"
)

// Store 引擎的持久化依赖
// PersistDelivery 必须把局状态、逐球记录与球员增量放在同一事务里，
// 要么全部落库要么全部失败
type Store interface {
	GetMatch(ctx context.Context, id int64) (Match, error)
	GetInnings(ctx context.Context, id int64) (Innings, error)
	GetInningsByNumber(ctx context.Context, matchID int64, number int) (Innings, error)
	UpdateInnings(ctx context.Context, in Innings) error
	PersistDelivery(ctx context.Context, in Innings, ball BallRecord, batting, bowling PlayerDelta) error
}

// Snapshot 一次成功 Apply 之后对外发布的完整快照
type Snapshot struct {
	Match           Match       `json:"match"`
	Innings         Innings     `json:"innings"`
	LastBall        *BallRecord `json:"last_ball,omitempty"`
	RequiredRunRate float64     `json:"required_run_rate,omitempty"`
}

// WicketFall 三柱门倒下的次级通知
type WicketFall struct {
	WicketNumber  int           `json:"wicket_number"`
	DismissalType DismissalType `json:"dismissal_type"`
	Match         Match         `json:"match"`
}

// Engine 记分引擎
// 每个局是串行化单元：同一局的 Apply 严格排队，不同局完全并行。
// 聚合先在内存副本上完成转移，持久化成功后才安装为可见状态并广播。
type Engine struct {
	store     Store
	projector *StatProjector
	publisher Publisher

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	cache map[int64]*Innings
}

// NewEngine 创建记分引擎
func NewEngine(store Store, projector *StatProjector, publisher Publisher) *Engine {
	return &Engine{
		store:     store,
		projector: projector,
		publisher: publisher,
		locks:     make(map[int64]*sync.Mutex),
		cache:     make(map[int64]*Innings),
	}
}

func (e *Engine) inningsLock(inningsID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.locks[inningsID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[inningsID] = m
	}
	return m
}

// loadInnings 必须在持有该局的锁时调用
func (e *Engine) loadInnings(ctx context.Context, inningsID int64) (*Innings, error) {
	if in, ok := e.cache[inningsID]; ok {
		return in, nil
	}
	in, err := e.store.GetInnings(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	e.cache[inningsID] = &in
	return &in, nil
}

func (e *Engine) publish(ev Event) {
	if e.publisher != nil {
		e.publisher.Publish(ev)
	}
}

// SubmitDelivery 把一次投球事件应用到指定的局
// 效果是原子的：局聚合、逐球记录和球员统计一起落库或一起失败;
// 成功后返回的快照反映新totals，并交给广播层异步分发
func (e *Engine) SubmitDelivery(ctx context.Context, inningsID int64, ev DeliveryEvent) (Snapshot, error) {
	lock := e.inningsLock(inningsID)
	lock.Lock()
	defer lock.Unlock()

	in, err := e.loadInnings(ctx, inningsID)
	if err != nil {
		return Snapshot{}, err
	}

	match, err := e.store.GetMatch(ctx, in.MatchID)
	if err != nil {
		return Snapshot{}, err
	}

	next, ball, err := applyDelivery(*in, ev, match.MaxBalls())
	if err != nil {
		return Snapshot{}, err
	}

	// 折叠 + 落库：统计折叠与局更新是同一笔事务，至多折叠一次
	err = e.projector.Fold(ball, match.ID, func(batting, bowling PlayerDelta) error {
		return e.store.PersistDelivery(ctx, next, ball, batting, bowling)
	})
	if err != nil {
		// 聚合未被改动，可整体重试
		return Snapshot{}, err
	}

	// 事务提交后才安装新状态
	e.cache[inningsID] = &next

	snap := Snapshot{
		Match:    match,
		Innings:  next,
		LastBall: &ball,
	}
	if next.Number == 2 {
		snap.RequiredRunRate = e.requiredRunRate(ctx, match, next)
	}

	// 广播不持有局锁，慢订阅者不会挡住下一次投球
	e.publish(Event{Type: EventScoreUpdate, MatchID: match.ID, Payload: snap})
	if ball.Wicket {
		e.publish(Event{Type: EventWicketFall, MatchID: match.ID, Payload: WicketFall{
			WicketNumber:  next.TotalWickets,
			DismissalType: ball.DismissalType,
			Match:         match,
		}})
	}

	if next.Status == InningsCompleted {
		logger.Printf("[Engine] Innings %d completed (%d/%d in %d balls)",
			next.ID, next.TotalRuns, next.TotalWickets, next.TotalBalls)
	}

	return snap, nil
}

// requiredRunRate 第二局的追分速率：目标分与剩余合法球数推导
func (e *Engine) requiredRunRate(ctx context.Context, match Match, second Innings) float64 {
	first, err := e.store.GetInningsByNumber(ctx, match.ID, 1)
	if err != nil {
		return 0
	}
	remaining := match.MaxBalls() - second.TotalBalls
	if remaining <= 0 {
		return 0
	}
	need := first.TotalRuns + 1 - second.TotalRuns
	if need <= 0 {
		return 0
	}
	return float64(need) / float64(remaining) * 6
}

// updateInnings 在局锁内执行转移并持久化，成功后安装新状态
func (e *Engine) updateInnings(ctx context.Context, inningsID int64, fn func(Innings) (Innings, error)) (Innings, error) {
	lock := e.inningsLock(inningsID)
	lock.Lock()
	defer lock.Unlock()

	in, err := e.loadInnings(ctx, inningsID)
	if err != nil {
		return Innings{}, err
	}

	next, err := fn(*in)
	if err != nil {
		return Innings{}, err
	}

	if err := e.store.UpdateInnings(ctx, next); err != nil {
		return Innings{}, err
	}

	e.cache[inningsID] = &next
	return next, nil
}

// SetBatsmen 设置两个开局/当前击球手，striker 在击
func (e *Engine) SetBatsmen(ctx context.Context, inningsID, strikerID, nonStrikerID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		return in.withBatsmen(strikerID, nonStrikerID)
	})
}

// SetBowler 换投球手
func (e *Engine) SetBowler(ctx context.Context, inningsID, bowlerID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		return in.withBowler(bowlerID)
	})
}

// ReplaceBatsman 三柱门倒下后新击球手补位
func (e *Engine) ReplaceBatsman(ctx context.Context, inningsID, playerID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		return in.withReplacementBatsman(playerID)
	})
}

// StartInnings 把局从 not_started 推进到 in_progress
func (e *Engine) StartInnings(ctx context.Context, inningsID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		if in.Status != InningsNotStarted {
			return in, ErrInningsNotActive
		}
		in.Status = InningsInProgress
		return in, nil
	})
}

// CompleteInnings 收局 (幂等：已结束的局直接返回现状)
func (e *Engine) CompleteInnings(ctx context.Context, inningsID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		if in.Status == InningsCompleted {
			return in, nil
		}
		in.Status = InningsCompleted
		return in, nil
	})
}

// AssignTeams 开赛时按掷币结果落定两边攻防
func (e *Engine) AssignTeams(ctx context.Context, inningsID, battingTeamID, bowlingTeamID int64) (Innings, error) {
	return e.updateInnings(ctx, inningsID, func(in Innings) (Innings, error) {
		if in.Status != InningsNotStarted {
			return in, ErrInningsNotActive
		}
		in.BattingTeamID = battingTeamID
		in.BowlingTeamID = bowlingTeamID
		return in, nil
	})
}
