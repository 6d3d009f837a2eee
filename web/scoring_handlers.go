package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cricket-score-service/scoring"
)

func inningsIDFromRequest(r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	return id, err == nil && id > 0
}

// handleSubmitDelivery 提交一次投球事件
// 成功后返回更新的局快照，广播由引擎经网关异步完成
func (s *Server) handleSubmitDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := inningsIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid innings id", http.StatusBadRequest)
		return
	}

	var req struct {
		StrikerID         int64  `json:"striker_id"`
		NonStrikerID      int64  `json:"non_striker_id"`
		BowlerID          int64  `json:"bowler_id"`
		Runs              int    `json:"runs"`
		Extras            int    `json:"extras"`
		ExtraType         string `json:"extra_type"`
		Wicket            bool   `json:"wicket"`
		DismissalType     string `json:"dismissal_type"`
		DismissedPlayerID int64  `json:"dismissed_player_id"`
		FielderID         int64  `json:"fielder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ExtraType == "" {
		req.ExtraType = string(scoring.ExtraNone)
	}
	if req.DismissalType == "" {
		req.DismissalType = string(scoring.DismissalNone)
	}

	event := scoring.DeliveryEvent{
		StrikerID:         req.StrikerID,
		NonStrikerID:      req.NonStrikerID,
		BowlerID:          req.BowlerID,
		RunsOffBat:        req.Runs,
		Extras:            req.Extras,
		ExtraType:         scoring.ExtraType(req.ExtraType),
		Wicket:            req.Wicket,
		DismissalType:     scoring.DismissalType(req.DismissalType),
		DismissedPlayerID: req.DismissedPlayerID,
		FielderID:         req.FielderID,
	}

	snapshot, err := s.engine.SubmitDelivery(r.Context(), id, event)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Score updated successfully",
		"data":    snapshot,
	})
}

// handleSetBatsmen 设置开局/当前两名击球手
func (s *Server) handleSetBatsmen(w http.ResponseWriter, r *http.Request) {
	id, ok := inningsIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid innings id", http.StatusBadRequest)
		return
	}

	var req struct {
		StrikerID    int64 `json:"striker_id"`
		NonStrikerID int64 `json:"non_striker_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	innings, err := s.engine.SetBatsmen(r.Context(), id, req.StrikerID, req.NonStrikerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    innings,
	})
}

// handleSetBowler 换投球手
func (s *Server) handleSetBowler(w http.ResponseWriter, r *http.Request) {
	id, ok := inningsIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid innings id", http.StatusBadRequest)
		return
	}

	var req struct {
		BowlerID int64 `json:"bowler_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	innings, err := s.engine.SetBowler(r.Context(), id, req.BowlerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    innings,
	})
}

// handleReplaceBatsman 三柱门倒下后新击球手补位
func (s *Server) handleReplaceBatsman(w http.ResponseWriter, r *http.Request) {
	id, ok := inningsIDFromRequest(r)
	if !ok {
		http.Error(w, "invalid innings id", http.StatusBadRequest)
		return
	}

	var req struct {
		PlayerID int64 `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	innings, err := s.engine.ReplaceBatsman(r.Context(), id, req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    innings,
	})
}
