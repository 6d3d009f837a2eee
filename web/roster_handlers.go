package web

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cricket-score-service/database"
)

// handleListTeams 获取所有球队
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT id, name, short_name, captain, coach, home_ground,
		       matches_played, matches_won, matches_lost, matches_tied,
		       created_at, updated_at
		FROM teams
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(r.Context(), query)
	if err != nil {
		log.Printf("[API] Error querying teams: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var teams []database.Team
	for rows.Next() {
		var t database.Team
		if err := rows.Scan(
			&t.ID, &t.Name, &t.ShortName, &t.Captain, &t.Coach, &t.HomeGround,
			&t.MatchesPlayed, &t.MatchesWon, &t.MatchesLost, &t.MatchesTied,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		teams = append(teams, t)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(teams),
		"data":    teams,
	})
}

// handleCreateTeam 创建球队
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		ShortName  string `json:"short_name"`
		Captain    string `json:"captain"`
		Coach      string `json:"coach"`
		HomeGround string `json:"home_ground"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ShortName == "" {
		http.Error(w, "name and short_name are required", http.StatusBadRequest)
		return
	}

	var id int64
	err := s.db.QueryRowContext(r.Context(), `
		INSERT INTO teams (name, short_name, captain, coach, home_ground)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id
	`, req.Name, req.ShortName, req.Captain, req.Coach, req.HomeGround).Scan(&id)
	if err != nil {
		log.Printf("[API] Error creating team: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Team created successfully",
		"data":    map[string]interface{}{"id": id},
	})
}

func (s *Server) queryTeam(r *http.Request, id int64) (database.Team, error) {
	var t database.Team
	err := s.db.QueryRowContext(r.Context(), `
		SELECT id, name, short_name, captain, coach, home_ground,
		       matches_played, matches_won, matches_lost, matches_tied,
		       created_at, updated_at
		FROM teams
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Name, &t.ShortName, &t.Captain, &t.Coach, &t.HomeGround,
		&t.MatchesPlayed, &t.MatchesWon, &t.MatchesLost, &t.MatchesTied,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// handleGetTeam 获取球队详情
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}

	team, err := s.queryTeam(r, id)
	if err == sql.ErrNoRows {
		http.Error(w, "Team not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    team,
	})
}

// handleListTeamPlayers 获取球队的所有球员
func (s *Server) handleListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}

	rows, err := s.db.QueryContext(r.Context(), `
		SELECT id, name, team_id, jersey_number, role, batting_style, bowling_style,
		       matches_played, total_runs, balls_faced, fours, sixes,
		       total_wickets, balls_bowled, runs_conceded,
		       created_at, updated_at
		FROM players
		WHERE team_id = $1
		ORDER BY name ASC
	`, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var players []map[string]interface{}
	for rows.Next() {
		var p database.Player
		if err := rows.Scan(
			&p.ID, &p.Name, &p.TeamID, &p.JerseyNumber, &p.Role, &p.BattingStyle, &p.BowlingStyle,
			&p.MatchesPlayed, &p.TotalRuns, &p.BallsFaced, &p.Fours, &p.Sixes,
			&p.TotalWickets, &p.BallsBowled, &p.RunsConceded,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		players = append(players, playerWithStats(&p))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(players),
		"data":    players,
	})
}

// handleCreatePlayer 创建球员
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		TeamID       int64  `json:"team_id"`
		JerseyNumber int    `json:"jersey_number"`
		Role         string `json:"role"`
		BattingStyle string `json:"batting_style"`
		BowlingStyle string `json:"bowling_style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.TeamID <= 0 {
		http.Error(w, "name and team_id are required", http.StatusBadRequest)
		return
	}

	switch req.Role {
	case "batsman", "bowler", "all_rounder", "wicket_keeper":
	default:
		http.Error(w, "role must be one of batsman, bowler, all_rounder, wicket_keeper", http.StatusBadRequest)
		return
	}
	if req.BattingStyle == "" {
		req.BattingStyle = "right_hand"
	}

	var id int64
	err := s.db.QueryRowContext(r.Context(), `
		INSERT INTO players (name, team_id, jersey_number, role, batting_style, bowling_style)
		VALUES ($1, $2, NULLIF($3, 0), $4, $5, NULLIF($6, ''))
		RETURNING id
	`, req.Name, req.TeamID, req.JerseyNumber, req.Role, req.BattingStyle, req.BowlingStyle).Scan(&id)
	if err != nil {
		log.Printf("[API] Error creating player: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Player created successfully",
		"data":    map[string]interface{}{"id": id},
	})
}

// handleGetPlayer 获取球员详情及推导的统计比率
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	var p database.Player
	err = s.db.QueryRowContext(r.Context(), `
		SELECT id, name, team_id, jersey_number, role, batting_style, bowling_style,
		       matches_played, total_runs, balls_faced, fours, sixes,
		       total_wickets, balls_bowled, runs_conceded,
		       created_at, updated_at
		FROM players
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.TeamID, &p.JerseyNumber, &p.Role, &p.BattingStyle, &p.BowlingStyle,
		&p.MatchesPlayed, &p.TotalRuns, &p.BallsFaced, &p.Fours, &p.Sixes,
		&p.TotalWickets, &p.BallsBowled, &p.RunsConceded,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    playerWithStats(&p),
	})
}

// playerWithStats 计数器是真值，比率在读取时推导
func playerWithStats(p *database.Player) map[string]interface{} {
	return map[string]interface{}{
		"player": p,
		"stats": map[string]interface{}{
			"batting_average": p.BattingAverage(),
			"strike_rate":     p.StrikeRate(),
			"bowling_average": p.BowlingAverage(),
			"economy_rate":    p.EconomyRate(),
		},
	}
}
