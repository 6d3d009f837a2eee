package scoring

import (
	"fmt"
	"sync"
)

// PlayerDelta 一次投球折叠进球员累计计数器的增量
// 只含单调递增的计数器; 平均分/击球率等比率一律读取时推导
type PlayerDelta struct {
	PlayerID      int64
	MatchesPlayed int
	Runs          int
	BallsFaced    int
	Fours         int
	Sixes         int
	BallsBowled   int
	RunsConceded  int
	Wickets       int
}

// IsZero 增量是否为空
func (d PlayerDelta) IsZero() bool {
	return d == PlayerDelta{PlayerID: d.PlayerID}
}

// StatProjector 把逐球记录折叠成球员的长期累计统计
// 每个投球事件至多折叠一次 (以局内序号为幂等键);
// 同一球员的计数器更新按球员串行化
type StatProjector struct {
	mu       sync.Mutex
	playerMu map[int64]*sync.Mutex
	folded   map[string]struct{}
	appeared map[string]struct{}
}

// NewStatProjector 创建 StatProjector
func NewStatProjector() *StatProjector {
	return &StatProjector{
		playerMu: make(map[int64]*sync.Mutex),
		folded:   make(map[string]struct{}),
		appeared: make(map[string]struct{}),
	}
}

func (p *StatProjector) lockFor(playerID int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.playerMu[playerID]
	if !ok {
		m = &sync.Mutex{}
		p.playerMu[playerID] = m
	}
	return m
}

func appearanceKey(playerID, matchID int64) string {
	return fmt.Sprintf("%d:%d", playerID, matchID)
}

// Fold 计算击球手与投球手的统计增量并通过 persist 回调落库
// persist 成功后才把事件标记为已折叠；失败则下次可整体重试。
// 重复折叠同一事件返回 ErrDeliveryAlreadyFolded。
func (p *StatProjector) Fold(ball BallRecord, matchID int64, persist func(batting, bowling PlayerDelta) error) error {
	// 按 ID 顺序锁两个球员，避免交叉死锁
	first, second := ball.StrikerID, ball.BowlerID
	if first > second {
		first, second = second, first
	}
	firstMu := p.lockFor(first)
	firstMu.Lock()
	defer firstMu.Unlock()
	if second != first {
		secondMu := p.lockFor(second)
		secondMu.Lock()
		defer secondMu.Unlock()
	}

	key := ball.FoldKey()

	p.mu.Lock()
	_, dup := p.folded[key]
	p.mu.Unlock()
	if dup {
		return fmt.Errorf("%w: %s", ErrDeliveryAlreadyFolded, key)
	}

	legal := 0
	if ball.ExtraType != ExtraWide && ball.ExtraType != ExtraNoBall {
		legal = 1
	}

	batting := PlayerDelta{
		PlayerID:   ball.StrikerID,
		Runs:       ball.RunsOffBat,
		BallsFaced: legal,
	}
	if ball.RunsOffBat == 4 {
		batting.Fours = 1
	} else if ball.RunsOffBat == 6 {
		batting.Sixes = 1
	}

	bowling := PlayerDelta{
		PlayerID:     ball.BowlerID,
		BallsBowled:  legal,
		RunsConceded: ball.RunsOffBat + ball.Extras,
	}
	if ball.Wicket && ball.DismissalType != DismissalRunOut {
		bowling.Wickets = 1
	}

	// matchesPlayed 每名球员每场只折叠一次
	p.mu.Lock()
	if _, ok := p.appeared[appearanceKey(ball.StrikerID, matchID)]; !ok {
		batting.MatchesPlayed = 1
	}
	if _, ok := p.appeared[appearanceKey(ball.BowlerID, matchID)]; !ok {
		bowling.MatchesPlayed = 1
	}
	p.mu.Unlock()

	if err := persist(batting, bowling); err != nil {
		return err
	}

	p.mu.Lock()
	p.folded[key] = struct{}{}
	p.appeared[appearanceKey(ball.StrikerID, matchID)] = struct{}{}
	p.appeared[appearanceKey(ball.BowlerID, matchID)] = struct{}{}
	p.mu.Unlock()

	return nil
}
