package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"cricket-score-service/config"
	"cricket-score-service/logger"
)

// DeliveryCommand 记分台通过 AMQP 投递的投球命令
type DeliveryCommand struct {
	InningsID int64 `json:"innings_id"`
	DeliveryEvent
}

// ReconnectConfig 重连配置
type ReconnectConfig struct {
	MaxRetries    int           // 最大重试次数 (0 = 无限重试)
	InitialDelay  time.Duration // 初始延迟
	MaxDelay      time.Duration // 最大延迟
	BackoffFactor float64       // 退避因子
}

// DefaultReconnectConfig 默认重连配置
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		MaxRetries:    0,
		InitialDelay:  1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
	}
}

// FeedConsumer 消费记分台发布的投球命令并驱动记分引擎
// 连接断开后按指数退避自动重连
type FeedConsumer struct {
	config  *config.Config
	engine  *Engine
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan bool
}

// NewFeedConsumer 创建 FeedConsumer
func NewFeedConsumer(cfg *config.Config, engine *Engine) *FeedConsumer {
	return &FeedConsumer{
		config: cfg,
		engine: engine,
		done:   make(chan bool),
	}
}

// Start 建立连接并开始消费，阻塞直到 Stop
func (c *FeedConsumer) Start() error {
	msgs, err := c.connectAndConsume()
	if err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go c.handleMessages(msgs)
	go c.monitorConnection(DefaultReconnectConfig())

	<-c.done
	return nil
}

// Stop 关闭连接
func (c *FeedConsumer) Stop() {
	logger.Println("[Feed] Stopping feed consumer...")

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}

	close(c.done)
}

func (c *FeedConsumer) connectAndConsume() (<-chan amqp.Delivery, error) {
	logger.Printf("[Feed] Connecting to AMQP at %s...", c.config.AMQPURL)

	conn, err := amqp.Dial(c.config.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	c.conn = conn

	logger.Println("[Feed] Connected to AMQP server")

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	c.channel = channel

	// 设置QoS
	if err := channel.Qos(100, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	// 声明记分交换机
	if err := channel.ExchangeDeclare(
		c.config.AMQPExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// 声明队列
	queue, err := channel.QueueDeclare(
		"",    // name (auto-generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logger.Printf("[Feed] Queue declared: %s", queue.Name)

	// 绑定 routing keys
	for _, routingKey := range c.config.RoutingKeys {
		if err := channel.QueueBind(
			queue.Name,
			routingKey,
			c.config.AMQPExchange,
			false,
			nil,
		); err != nil {
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
		logger.Printf("[Feed] Bound to routing key: %s", routingKey)
	}

	// 开始消费消息
	msgs, err := channel.Consume(
		queue.Name,
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	logger.Println("[Feed] Started consuming delivery commands")

	return msgs, nil
}

func (c *FeedConsumer) handleMessages(msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		c.processDelivery(msg)
	}
}

func (c *FeedConsumer) processDelivery(msg amqp.Delivery) {
	var cmd DeliveryCommand
	if err := json.Unmarshal(msg.Body, &cmd); err != nil {
		logger.Errorf("[Feed] Failed to unmarshal delivery command (key %s): %v", msg.RoutingKey, err)
		return
	}

	if cmd.InningsID <= 0 {
		logger.Errorf("[Feed] Delivery command without innings_id (key %s)", msg.RoutingKey)
		return
	}

	// 省略的字段与 HTTP 层同样按无附加分/无出局处理
	if cmd.ExtraType == "" {
		cmd.ExtraType = ExtraNone
	}
	if cmd.DismissalType == "" {
		cmd.DismissalType = DismissalNone
	}

	snap, err := c.engine.SubmitDelivery(context.Background(), cmd.InningsID, cmd.DeliveryEvent)
	if err != nil {
		logger.Errorf("[Feed] Delivery rejected for innings %d: %v", cmd.InningsID, err)
		return
	}

	logger.Printf("[Feed] Innings %d: %d/%d after %d balls",
		cmd.InningsID, snap.Innings.TotalRuns, snap.Innings.TotalWickets, snap.Innings.TotalBalls)
}

// monitorConnection 监控连接状态并自动重连
func (c *FeedConsumer) monitorConnection(cfg *ReconnectConfig) {
	retryCount := 0
	currentDelay := cfg.InitialDelay

	for {
		closeErr := <-c.conn.NotifyClose(make(chan *amqp.Error))

		if closeErr == nil {
			// 正常关闭
			logger.Println("[Feed] Connection closed normally")
			return
		}

		logger.Errorf("[Feed] Connection lost: %v", closeErr)

		// 重连成功前不能回到 NotifyClose，旧连接已失效
		for {
			if cfg.MaxRetries > 0 && retryCount >= cfg.MaxRetries {
				logger.Errorf("[Feed] Max retries (%d) reached, giving up", cfg.MaxRetries)
				return
			}

			retryCount++
			logger.Printf("[Feed] Reconnecting in %v (attempt %d)...", currentDelay, retryCount)
			time.Sleep(currentDelay)

			msgs, err := c.reconnect()
			if err != nil {
				logger.Errorf("[Feed] Reconnect failed: %v", err)

				// 指数退避
				currentDelay = time.Duration(float64(currentDelay) * cfg.BackoffFactor)
				if currentDelay > cfg.MaxDelay {
					currentDelay = cfg.MaxDelay
				}
				continue
			}

			logger.Println("[Feed] Reconnected successfully")
			go c.handleMessages(msgs)

			retryCount = 0
			currentDelay = cfg.InitialDelay
			break
		}
	}
}

func (c *FeedConsumer) reconnect() (<-chan amqp.Delivery, error) {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	return c.connectAndConsume()
}
