package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ScoreStore 记分数据的 postgres 持久化
// 所有写路径都套持久化超时：超时后以 ErrStoreTimeout 返回，
// 调用方可整体重试，内存聚合不会被部分更新
type ScoreStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewScoreStore 创建 ScoreStore
func NewScoreStore(db *sql.DB, timeout time.Duration) *ScoreStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ScoreStore{db: db, timeout: timeout}
}

func (s *ScoreStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return err
}

// GetMatch 读取比赛
func (s *ScoreStore) GetMatch(ctx context.Context, id int64) (Match, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, team1_id, team2_id, venue, match_date, match_type, overs_per_innings,
		       status, toss_winner_id, toss_decision, winner_id, result_type, result_margin,
		       current_innings
		FROM matches
		WHERE id = $1
	`
	return s.scanMatch(s.db.QueryRowContext(ctx, query, id))
}

func (s *ScoreStore) scanMatch(row *sql.Row) (Match, error) {
	var (
		m            Match
		tossWinner   sql.NullInt64
		tossDecision sql.NullString
		winner       sql.NullInt64
		resultType   sql.NullString
		resultMargin sql.NullInt64
	)

	err := row.Scan(
		&m.ID, &m.Team1ID, &m.Team2ID, &m.Venue, &m.MatchDate, &m.Format, &m.OversPerInnings,
		&m.Status, &tossWinner, &tossDecision, &winner, &resultType, &resultMargin,
		&m.CurrentInnings,
	)
	if err == sql.ErrNoRows {
		return Match{}, ErrMatchNotFound
	}
	if err != nil {
		return Match{}, mapStoreErr(err)
	}

	if tossWinner.Valid {
		m.TossWinnerID = tossWinner.Int64
	}
	if tossDecision.Valid {
		m.TossDecision = TossDecision(tossDecision.String)
	}
	if winner.Valid {
		m.WinnerID = winner.Int64
	}
	if resultType.Valid {
		m.ResultType = ResultType(resultType.String)
	}
	if resultMargin.Valid {
		m.ResultMargin = int(resultMargin.Int64)
	}

	return m, nil
}

// ListMatches 按日期倒序读取全部比赛
func (s *ScoreStore) ListMatches(ctx context.Context) ([]Match, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, team1_id, team2_id, venue, match_date, match_type, overs_per_innings,
		       status, toss_winner_id, toss_decision, winner_id, result_type, result_margin,
		       current_innings
		FROM matches
		ORDER BY match_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m            Match
			tossWinner   sql.NullInt64
			tossDecision sql.NullString
			winner       sql.NullInt64
			resultType   sql.NullString
			resultMargin sql.NullInt64
		)
		if err := rows.Scan(
			&m.ID, &m.Team1ID, &m.Team2ID, &m.Venue, &m.MatchDate, &m.Format, &m.OversPerInnings,
			&m.Status, &tossWinner, &tossDecision, &winner, &resultType, &resultMargin,
			&m.CurrentInnings,
		); err != nil {
			return nil, mapStoreErr(err)
		}
		if tossWinner.Valid {
			m.TossWinnerID = tossWinner.Int64
		}
		if tossDecision.Valid {
			m.TossDecision = TossDecision(tossDecision.String)
		}
		if winner.Valid {
			m.WinnerID = winner.Int64
		}
		if resultType.Valid {
			m.ResultType = ResultType(resultType.String)
		}
		if resultMargin.Valid {
			m.ResultMargin = int(resultMargin.Int64)
		}
		matches = append(matches, m)
	}

	return matches, mapStoreErr(rows.Err())
}

// UpdateMatch 更新比赛状态/掷币/结果字段
func (s *ScoreStore) UpdateMatch(ctx context.Context, m Match) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE matches
		SET status = $2, toss_winner_id = NULLIF($3, 0), toss_decision = NULLIF($4, ''),
		    winner_id = NULLIF($5, 0), result_type = NULLIF($6, ''), result_margin = $7,
		    current_innings = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		m.ID, m.Status, m.TossWinnerID, string(m.TossDecision),
		m.WinnerID, string(m.ResultType), m.ResultMargin,
		m.CurrentInnings, time.Now(),
	)
	if err != nil {
		return mapStoreErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// CreateMatch 建赛事务：比赛和它的两局一起落库
func (s *ScoreStore) CreateMatch(ctx context.Context, m Match, first, second Innings) (Match, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, mapStoreErr(err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO matches (team1_id, team2_id, venue, match_date, match_type, overs_per_innings, status, current_innings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING id
	`, m.Team1ID, m.Team2ID, m.Venue, m.MatchDate, m.Format, m.OversPerInnings, m.Status).Scan(&m.ID)
	if err != nil {
		return Match{}, mapStoreErr(err)
	}

	for _, in := range []Innings{first, second} {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO innings (match_id, batting_team_id, bowling_team_id, innings_number, status)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, in.BattingTeamID, in.BowlingTeamID, in.Number, in.Status)
		if err != nil {
			return Match{}, mapStoreErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Match{}, mapStoreErr(err)
	}
	return m, nil
}

const inningsColumns = `
	id, match_id, batting_team_id, bowling_team_id, innings_number,
	total_runs, total_wickets, total_balls, extras, deliveries,
	current_run_rate, status, current_batsmen, current_bowler
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInnings(row rowScanner) (Innings, error) {
	var (
		in          Innings
		batsmenJSON []byte
		bowlerJSON  []byte
	)
	err := row.Scan(
		&in.ID, &in.MatchID, &in.BattingTeamID, &in.BowlingTeamID, &in.Number,
		&in.TotalRuns, &in.TotalWickets, &in.TotalBalls, &in.Extras, &in.Deliveries,
		&in.CurrentRunRate, &in.Status, &batsmenJSON, &bowlerJSON,
	)
	if err == sql.ErrNoRows {
		return Innings{}, ErrInningsNotFound
	}
	if err != nil {
		return Innings{}, mapStoreErr(err)
	}

	if len(batsmenJSON) > 0 {
		if err := json.Unmarshal(batsmenJSON, &in.Batsmen); err != nil {
			return Innings{}, fmt.Errorf("failed to unmarshal batsmen slots: %w", err)
		}
	}
	if len(bowlerJSON) > 0 {
		if err := json.Unmarshal(bowlerJSON, &in.Bowler); err != nil {
			return Innings{}, fmt.Errorf("failed to unmarshal bowler slot: %w", err)
		}
	}
	return in, nil
}

// GetInnings 按 ID 读取局
func (s *ScoreStore) GetInnings(ctx context.Context, id int64) (Innings, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + inningsColumns + ` FROM innings WHERE id = $1`
	return scanInnings(s.db.QueryRowContext(ctx, query, id))
}

// GetInningsByNumber 按比赛和局号读取局
func (s *ScoreStore) GetInningsByNumber(ctx context.Context, matchID int64, number int) (Innings, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + inningsColumns + ` FROM innings WHERE match_id = $1 AND innings_number = $2`
	return scanInnings(s.db.QueryRowContext(ctx, query, matchID, number))
}

// GetMatchInnings 读取一场比赛的全部局 (按局号排序)
func (s *ScoreStore) GetMatchInnings(ctx context.Context, matchID int64) ([]Innings, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + inningsColumns + ` FROM innings WHERE match_id = $1 ORDER BY innings_number ASC`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	var list []Innings
	for rows.Next() {
		in, err := scanInnings(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, in)
	}
	return list, mapStoreErr(rows.Err())
}

func updateInningsTx(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}, in Innings) error {
	batsmenJSON, err := json.Marshal(in.Batsmen)
	if err != nil {
		return fmt.Errorf("failed to marshal batsmen slots: %w", err)
	}
	bowlerJSON, err := json.Marshal(in.Bowler)
	if err != nil {
		return fmt.Errorf("failed to marshal bowler slot: %w", err)
	}

	query := `
		UPDATE innings
		SET batting_team_id = $2, bowling_team_id = $3,
		    total_runs = $4, total_wickets = $5, total_balls = $6, extras = $7, deliveries = $8,
		    current_run_rate = $9, status = $10, current_batsmen = $11, current_bowler = $12,
		    updated_at = $13
		WHERE id = $1
	`
	res, err := execer.ExecContext(ctx, query,
		in.ID, in.BattingTeamID, in.BowlingTeamID,
		in.TotalRuns, in.TotalWickets, in.TotalBalls, in.Extras, in.Deliveries,
		in.CurrentRunRate, in.Status, batsmenJSON, bowlerJSON,
		time.Now(),
	)
	if err != nil {
		return mapStoreErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInningsNotFound
	}
	return nil
}

// UpdateInnings 更新局状态 (槽位设置、局状态推进等非投球路径)
func (s *ScoreStore) UpdateInnings(ctx context.Context, in Innings) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return updateInningsTx(ctx, s.db, in)
}

// PersistDelivery 单笔事务落一次投球：逐球记录追加、局状态更新、
// 球员累计计数器折叠，三者要么全部提交要么全部回滚
func (s *ScoreStore) PersistDelivery(ctx context.Context, in Innings, ball BallRecord, batting, bowling PlayerDelta) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr(err)
	}
	defer tx.Rollback()

	// 追加逐球记录；(innings_id, seq) 唯一约束兜底防止重复追加
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ball_by_ball (innings_id, seq, over_number, ball_number,
			striker_id, non_striker_id, bowler_id,
			runs_scored, extras, extra_type, wicket_taken, dismissal_type,
			dismissed_player_id, fielder_id, commentary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, 0), NULLIF($14, 0), $15)
	`, ball.InningsID, ball.Seq, ball.OverNumber, ball.BallNumber,
		ball.StrikerID, ball.NonStrikerID, ball.BowlerID,
		ball.RunsOffBat, ball.Extras, ball.ExtraType, ball.Wicket, ball.DismissalType,
		ball.DismissedPlayerID, ball.FielderID, ball.Commentary)
	if err != nil {
		return mapStoreErr(err)
	}

	if err := updateInningsTx(ctx, tx, in); err != nil {
		return err
	}

	for _, d := range []PlayerDelta{batting, bowling} {
		if d.PlayerID == 0 {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE players
			SET matches_played = matches_played + $2,
			    total_runs = total_runs + $3,
			    balls_faced = balls_faced + $4,
			    fours = fours + $5,
			    sixes = sixes + $6,
			    balls_bowled = balls_bowled + $7,
			    runs_conceded = runs_conceded + $8,
			    total_wickets = total_wickets + $9,
			    updated_at = $10
			WHERE id = $1
		`, d.PlayerID, d.MatchesPlayed, d.Runs, d.BallsFaced, d.Fours, d.Sixes,
			d.BallsBowled, d.RunsConceded, d.Wickets, time.Now())
		if err != nil {
			return mapStoreErr(err)
		}
	}

	return mapStoreErr(tx.Commit())
}

// RecentBalls 读取一局最近的 N 个球 (按序号倒查后翻转为时间序)
func (s *ScoreStore) RecentBalls(ctx context.Context, inningsID int64, limit int) ([]BallRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if limit <= 0 || limit > 60 {
		limit = 6
	}

	query := `
		SELECT innings_id, seq, over_number, ball_number,
		       striker_id, non_striker_id, bowler_id,
		       runs_scored, extras, extra_type, wicket_taken, dismissal_type,
		       COALESCE(dismissed_player_id, 0), COALESCE(fielder_id, 0), COALESCE(commentary, '')
		FROM ball_by_ball
		WHERE innings_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, inningsID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	var balls []BallRecord
	for rows.Next() {
		var b BallRecord
		if err := rows.Scan(
			&b.InningsID, &b.Seq, &b.OverNumber, &b.BallNumber,
			&b.StrikerID, &b.NonStrikerID, &b.BowlerID,
			&b.RunsOffBat, &b.Extras, &b.ExtraType, &b.Wicket, &b.DismissalType,
			&b.DismissedPlayerID, &b.FielderID, &b.Commentary,
		); err != nil {
			return nil, mapStoreErr(err)
		}
		balls = append(balls, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr(err)
	}

	// 翻转为投球顺序
	for i, j := 0, len(balls)-1; i < j; i, j = i+1, j-1 {
		balls[i], balls[j] = balls[j], balls[i]
	}
	return balls, nil
}

// TeamExists 球队是否存在
func (s *ScoreStore) TeamExists(ctx context.Context, teamID int64) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, teamID).Scan(&exists)
	return exists, mapStoreErr(err)
}

// RecordTeamResult 终局后折叠球队胜负计数
func (s *ScoreStore) RecordTeamResult(ctx context.Context, winnerID, loserID int64, tie bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr(err)
	}
	defer tx.Rollback()

	if tie {
		_, err = tx.ExecContext(ctx, `
			UPDATE teams
			SET matches_played = matches_played + 1, matches_tied = matches_tied + 1, updated_at = $3
			WHERE id IN ($1, $2)
		`, winnerID, loserID, time.Now())
		if err != nil {
			return mapStoreErr(err)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE teams
			SET matches_played = matches_played + 1, matches_won = matches_won + 1, updated_at = $2
			WHERE id = $1
		`, winnerID, time.Now())
		if err != nil {
			return mapStoreErr(err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE teams
			SET matches_played = matches_played + 1, matches_lost = matches_lost + 1, updated_at = $2
			WHERE id = $1
		`, loserID, time.Now())
		if err != nil {
			return mapStoreErr(err)
		}
	}

	return mapStoreErr(tx.Commit())
}
