package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"cricket-score-service/config"
	"cricket-score-service/database"
	"cricket-score-service/scoring"
	"cricket-score-service/web"
)

func main() {
	log.Println("Starting Cricket Score Service...")

	// 加载配置
	cfg := config.Load()

	// 连接数据库
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 运行数据库迁移
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database connected and migrated")

	// 创建事件网关：引擎发布，WebSocket Hub 消费
	broker := scoring.NewEventBroker(cfg.BroadcastBuffer)

	// 创建WebSocket Hub
	wsHub := web.NewHub()
	go wsHub.Run()
	go wsHub.ConsumeEvents(broker.Subscribe())

	// 记分核心：存储 -> 统计投影 -> 引擎 -> 生命周期
	store := scoring.NewScoreStore(db, cfg.StoreTimeout)
	projector := scoring.NewStatProjector()
	engine := scoring.NewEngine(store, projector, broker)
	lifecycle := scoring.NewLifecycle(store, engine, broker)

	// 启动AMQP消息源消费者 (可选，HTTP 记分始终可用)
	var feedConsumer *scoring.FeedConsumer
	if cfg.FeedEnabled {
		feedConsumer = scoring.NewFeedConsumer(cfg, engine)
		go func() {
			if err := feedConsumer.Start(); err != nil {
				log.Fatalf("Feed consumer error: %v", err)
			}
		}()
		log.Println("Feed consumer started")
	}

	// 启动Web服务器
	server := web.NewServer(cfg, db, wsHub, store, engine, lifecycle)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Web server error: %v", err)
		}
	}()

	log.Printf("Web server started on port %s", cfg.Port)

	log.Println("Service is running. Press Ctrl+C to stop.")

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down service...")

	// 清理资源
	if feedConsumer != nil {
		feedConsumer.Stop()
	}
	server.Stop()
	broker.Close()

	log.Println("Service stopped")
}
