package scoring

import "errors"

var (
	// ErrMatchNotFound 比赛不存在
	ErrMatchNotFound = errors.New("match not found")

	// ErrInningsNotFound 局不存在
	ErrInningsNotFound = errors.New("innings not found")

	// ErrTeamNotFound 球队不存在
	ErrTeamNotFound = errors.New("team not found")

	// ErrInningsOver 局已结束 (10 个三柱门或 overs 用尽)，不再接受投球
	ErrInningsOver = errors.New("innings already over")

	// ErrInningsNotActive 局不在进行中
	ErrInningsNotActive = errors.New("innings not in progress")

	// ErrMatchNotLive 比赛不在进行中
	ErrMatchNotLive = errors.New("match not live")

	// ErrMatchAlreadyStarted 比赛已经开始
	ErrMatchAlreadyStarted = errors.New("match already started")

	// ErrMatchCompleted 比赛已结束
	ErrMatchCompleted = errors.New("match already completed")

	// ErrInvalidEvent 投球事件数据非法 (负数得分、未知 extras 类型等)
	ErrInvalidEvent = errors.New("invalid delivery event")

	// ErrDeliveryAlreadyFolded 同一投球事件被重复折叠进球员统计
	ErrDeliveryAlreadyFolded = errors.New("delivery already folded")

	// ErrStoreTimeout 持久化超时，调用方可整体重试，聚合状态未被改动
	ErrStoreTimeout = errors.New("store operation timed out")
)

// IsNotFound 判断是否为"未找到"类错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrInningsNotFound) ||
		errors.Is(err, ErrTeamNotFound)
}

// IsInvalidState 判断是否为"状态非法"类错误 (命令被拒绝，状态未变)
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInningsOver) ||
		errors.Is(err, ErrInningsNotActive) ||
		errors.Is(err, ErrMatchNotLive) ||
		errors.Is(err, ErrMatchAlreadyStarted) ||
		errors.Is(err, ErrMatchCompleted) ||
		errors.Is(err, ErrDeliveryAlreadyFolded)
}

// IsRetryable 判断是否为可重试的瞬时失败
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreTimeout)
}
