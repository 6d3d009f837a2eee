package scoring

import (
	"sync"

	"cricket-score-service/logger"
)

// EventType 对外广播的事件类型
type EventType string

const (
	EventScoreUpdate   EventType = "score-update"
	EventWicketFall    EventType = "wicket-fall"
	EventMatchStarted  EventType = "match-started"
	EventInningsEnd    EventType = "innings-end"
	EventMatchComplete EventType = "match-complete"
)

// Event 引擎产出的广播事件，载荷是受影响聚合的完整快照 (替换语义，非增量)
type Event struct {
	Type    EventType   `json:"type"`
	MatchID int64       `json:"match_id"`
	Payload interface{} `json:"data"`
}

// Publisher 引擎侧的发布接口：发布必须是非阻塞的，
// 慢消费者不能拖住记分事务
type Publisher interface {
	Publish(ev Event)
}

// EventBroker 引擎与广播网关之间的内存缓冲层
// 记分事务提交后把快照丢进有界通道即返回; 订阅侧的消费速度不影响引擎
type EventBroker struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
	closed      bool
}

// NewEventBroker 创建 EventBroker，buffer 为每个订阅者的通道容量
func NewEventBroker(buffer int) *EventBroker {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventBroker{buffer: buffer}
}

// Publish 非阻塞发布：订阅者通道满时丢弃最旧的事件腾位
func (b *EventBroker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// 丢最旧、塞最新；快照是全量替换，丢中间状态无损最终一致
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				logger.Errorf("[Broker] Subscriber buffer full, event %s dropped", ev.Type)
			}
		}
	}
}

// Subscribe 注册一个订阅者，返回其事件通道
func (b *EventBroker) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	b.subscribers = append(b.subscribers, ch)

	logger.Printf("[Broker] Subscriber registered. Total subscribers: %d", len(b.subscribers))
	return ch
}

// Close 关闭所有订阅者通道
func (b *EventBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil

	logger.Println("[Broker] Closed all subscriber channels")
}
