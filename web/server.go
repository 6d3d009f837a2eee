package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"cricket-score-service/config"
	"cricket-score-service/scoring"
)

type Server struct {
	config     *config.Config
	db         *sql.DB
	wsHub      *Hub
	store      *scoring.ScoreStore
	engine     *scoring.Engine
	lifecycle  *scoring.Lifecycle
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, db *sql.DB, hub *Hub, store *scoring.ScoreStore, engine *scoring.Engine, lifecycle *scoring.Lifecycle) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		wsHub:     hub,
		store:     store,
		engine:    engine,
		lifecycle: lifecycle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	// API路由
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// 球队/球员 (花名册)
	api.HandleFunc("/teams", s.handleListTeams).Methods("GET")
	api.HandleFunc("/teams", s.handleCreateTeam).Methods("POST")
	api.HandleFunc("/teams/{id}", s.handleGetTeam).Methods("GET")
	api.HandleFunc("/teams/{id}/players", s.handleListTeamPlayers).Methods("GET")
	api.HandleFunc("/players", s.handleCreatePlayer).Methods("POST")
	api.HandleFunc("/players/{id}", s.handleGetPlayer).Methods("GET")

	// 比赛生命周期
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/matches", s.handleCreateMatch).Methods("POST")
	api.HandleFunc("/matches/{id}", s.handleGetMatch).Methods("GET")
	api.HandleFunc("/matches/{id}/start", s.handleStartMatch).Methods("POST")
	api.HandleFunc("/matches/{id}/end-innings", s.handleEndInnings).Methods("POST")
	api.HandleFunc("/matches/{id}/live", s.handleGetLiveMatch).Methods("GET")

	// 记分
	api.HandleFunc("/innings/{id}/score", s.handleSubmitDelivery).Methods("POST")
	api.HandleFunc("/innings/{id}/batsmen", s.handleSetBatsmen).Methods("POST")
	api.HandleFunc("/innings/{id}/bowler", s.handleSetBowler).Methods("POST")
	api.HandleFunc("/innings/{id}/replace-batsman", s.handleReplaceBatsman).Methods("POST")

	// WebSocket路由
	router.HandleFunc("/ws", s.handleWebSocket)

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleWebSocket 升级连接并注册到 Hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:      s.wsHub,
		conn:     conn,
		send:     make(chan []byte, 256),
		matchIDs: make(map[int64]bool),
	}

	// ?match_id=N 直接订阅单场比赛
	if v := r.URL.Query().Get("match_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			client.matchIDs[id] = true
		}
	}

	s.wsHub.register <- client

	go client.writePump()
	go client.readPump()
}

// writeJSON 写出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError 把错误分类映射为 HTTP 状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case scoring.IsNotFound(err):
		status = http.StatusNotFound
	case scoring.IsInvalidState(err):
		status = http.StatusConflict
	case scoring.IsRetryable(err):
		// 瞬时持久化失败：调用方应整体重试
		status = http.StatusServiceUnavailable
	case isInvalidInput(err):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

func isInvalidInput(err error) bool {
	return errors.Is(err, scoring.ErrInvalidEvent)
}
