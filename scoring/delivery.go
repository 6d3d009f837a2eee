package scoring

import "fmt"

// ExtraType 附加分类型
type ExtraType string

const (
	ExtraNone   ExtraType = "none"
	ExtraWide   ExtraType = "wide"
	ExtraNoBall ExtraType = "noball"
	ExtraBye    ExtraType = "bye"
	ExtraLegBye ExtraType = "legbye"
)

// DismissalType 出局方式
type DismissalType string

const (
	DismissalNone      DismissalType = "none"
	DismissalBowled    DismissalType = "bowled"
	DismissalCaught    DismissalType = "caught"
	DismissalLBW       DismissalType = "lbw"
	DismissalRunOut    DismissalType = "run_out"
	DismissalStumped   DismissalType = "stumped"
	DismissalHitWicket DismissalType = "hit_wicket"
)

// DeliveryEvent 描述一次投球的不可变事件
// 由调用方 (HTTP 层或 AMQP 记分台消息) 构造，引擎只读取
type DeliveryEvent struct {
	StrikerID         int64         `json:"striker_id"`
	NonStrikerID      int64         `json:"non_striker_id"`
	BowlerID          int64         `json:"bowler_id"`
	RunsOffBat        int           `json:"runs"`
	Extras            int           `json:"extras"`
	ExtraType         ExtraType     `json:"extra_type"`
	Wicket            bool          `json:"wicket"`
	DismissalType     DismissalType `json:"dismissal_type"`
	DismissedPlayerID int64         `json:"dismissed_player_id,omitempty"`
	FielderID         int64         `json:"fielder_id,omitempty"`
}

// IsLegal 是否为合法投球 (wide/noball 不计入 over 的球数)
func (e DeliveryEvent) IsLegal() bool {
	return e.ExtraType != ExtraWide && e.ExtraType != ExtraNoBall
}

// BallsToAdd 本次投球计入 totalBalls 的球数
func (e DeliveryEvent) BallsToAdd() int {
	if e.IsLegal() {
		return 1
	}
	return 0
}

// TotalRuns 本次投球的总得分 (击球得分 + 附加分)
func (e DeliveryEvent) TotalRuns() int {
	return e.RunsOffBat + e.Extras
}

// Validate 在任何状态变更前校验事件本身
func (e DeliveryEvent) Validate() error {
	if e.StrikerID <= 0 || e.NonStrikerID <= 0 || e.BowlerID <= 0 {
		return fmt.Errorf("%w: striker, non-striker and bowler are required", ErrInvalidEvent)
	}
	if e.StrikerID == e.NonStrikerID {
		return fmt.Errorf("%w: striker and non-striker must differ", ErrInvalidEvent)
	}
	if e.RunsOffBat < 0 || e.Extras < 0 {
		return fmt.Errorf("%w: negative runs", ErrInvalidEvent)
	}

	switch e.ExtraType {
	case ExtraNone:
		if e.Extras != 0 {
			return fmt.Errorf("%w: extras without extra type", ErrInvalidEvent)
		}
	case ExtraWide:
		// wide 时击球手未触球，不可能有击球得分
		if e.RunsOffBat != 0 {
			return fmt.Errorf("%w: runs off bat on a wide", ErrInvalidEvent)
		}
		if e.Extras < 1 {
			return fmt.Errorf("%w: wide requires at least one extra", ErrInvalidEvent)
		}
	case ExtraNoBall:
		if e.Extras < 1 {
			return fmt.Errorf("%w: no-ball requires at least one extra", ErrInvalidEvent)
		}
	case ExtraBye, ExtraLegBye:
		if e.Extras < 1 {
			return fmt.Errorf("%w: bye/leg-bye requires at least one extra", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown extra type %q", ErrInvalidEvent, e.ExtraType)
	}

	switch e.DismissalType {
	case DismissalNone, DismissalBowled, DismissalCaught, DismissalLBW,
		DismissalRunOut, DismissalStumped, DismissalHitWicket:
	default:
		return fmt.Errorf("%w: unknown dismissal type %q", ErrInvalidEvent, e.DismissalType)
	}

	if e.Wicket && e.DismissalType == DismissalNone {
		return fmt.Errorf("%w: wicket without dismissal type", ErrInvalidEvent)
	}
	if !e.Wicket && e.DismissalType != DismissalNone {
		return fmt.Errorf("%w: dismissal type without wicket", ErrInvalidEvent)
	}

	return nil
}

// CreditsBowler 该出局是否记入投球手的 wickets (run out 不记)
func (e DeliveryEvent) CreditsBowler() bool {
	return e.Wicket && e.DismissalType != DismissalRunOut
}

// BallRecord 追加到逐球历史中的一条记录
// over/ball 编号按增量前的 totalBalls 推导; seq 是局内单调递增序号，
// 同时也是统计折叠的幂等键
type BallRecord struct {
	InningsID         int64         `json:"innings_id"`
	Seq               int           `json:"seq"`
	OverNumber        int           `json:"over_number"`
	BallNumber        int           `json:"ball_number"`
	StrikerID         int64         `json:"striker_id"`
	NonStrikerID      int64         `json:"non_striker_id"`
	BowlerID          int64         `json:"bowler_id"`
	RunsOffBat        int           `json:"runs"`
	Extras            int           `json:"extras"`
	ExtraType         ExtraType     `json:"extra_type"`
	Wicket            bool          `json:"wicket"`
	DismissalType     DismissalType `json:"dismissal_type"`
	DismissedPlayerID int64         `json:"dismissed_player_id,omitempty"`
	FielderID         int64         `json:"fielder_id,omitempty"`
	Commentary        string        `json:"commentary"`
}

// FoldKey 统计折叠的幂等键
func (b BallRecord) FoldKey() string {
	return fmt.Sprintf("%d:%d", b.InningsID, b.Seq)
}

func ballCommentary(e DeliveryEvent) string {
	if e.Wicket {
		return fmt.Sprintf("WICKET! %s", e.DismissalType)
	}
	switch e.ExtraType {
	case ExtraWide:
		return fmt.Sprintf("wide, %d extras", e.Extras)
	case ExtraNoBall:
		return fmt.Sprintf("no ball, %d runs", e.TotalRuns())
	}
	return fmt.Sprintf("%d runs scored", e.RunsOffBat)
}
