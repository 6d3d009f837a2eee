package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"cricket-score-service/scoring"
)

func matchIDFromRequest(r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	return id, err == nil && id > 0
}

// handleListMatches 获取所有比赛
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatches(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(matches),
		"data":    matches,
	})
}

// handleCreateMatch 建赛 (同时建好两局)
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Team1ID         int64  `json:"team1_id"`
		Team2ID         int64  `json:"team2_id"`
		Venue           string `json:"venue"`
		MatchDate       string `json:"match_date"`
		MatchType       string `json:"match_type"`
		OversPerInnings int    `json:"overs_per_innings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Venue == "" {
		http.Error(w, "venue is required", http.StatusBadRequest)
		return
	}

	matchDate := time.Now()
	if req.MatchDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.MatchDate)
		if err != nil {
			http.Error(w, "match_date must be RFC3339", http.StatusBadRequest)
			return
		}
		matchDate = parsed
	}

	format := scoring.MatchFormat(req.MatchType)
	if req.MatchType == "" {
		format = scoring.FormatT20
	}

	match, err := s.lifecycle.CreateMatch(r.Context(), req.Team1ID, req.Team2ID, req.Venue, matchDate, format, req.OversPerInnings)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Match created successfully",
		"data":    match,
	})
}

// handleGetMatch 获取比赛详情 (含两局)
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	match, err := s.store.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	innings, err := s.store.GetMatchInnings(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"match":   match,
			"innings": innings,
		},
	})
}

// handleStartMatch 记录掷币并开赛
func (s *Server) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var req struct {
		TossWinnerID int64  `json:"toss_winner_id"`
		TossDecision string `json:"toss_decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	match, err := s.lifecycle.StartMatch(r.Context(), id, req.TossWinnerID, scoring.TossDecision(req.TossDecision))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Match started successfully",
		"data":    match,
	})
}

// handleEndInnings 收掉当前局
func (s *Server) handleEndInnings(w http.ResponseWriter, r *http.Request) {
	id, ok := matchIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	match, err := s.lifecycle.EndInnings(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "First innings ended, second innings started"
	if match.Status == scoring.MatchCompleted {
		message = "Match completed"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    match,
	})
}

// handleGetLiveMatch 获取实时比赛视图：比赛 + 当前局 + 最近 6 球
func (s *Server) handleGetLiveMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	log.Printf("[API] Getting live view for match %d", id)

	match, err := s.store.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	currentInnings, err := s.store.GetInningsByNumber(r.Context(), id, match.CurrentInnings)
	if err != nil {
		writeError(w, err)
		return
	}

	recentBalls, err := s.store.RecentBalls(r.Context(), currentInnings.ID, 6)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"match":          match,
			"currentInnings": currentInnings,
			"recentBalls":    recentBalls,
		},
	})
}
