package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect 连接到数据库
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 运行数据库迁移
func Migrate(db *sql.DB) error {
	migrations := []string{
		// 球队表
		`CREATE TABLE IF NOT EXISTS teams (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			short_name VARCHAR(10) UNIQUE NOT NULL,
			captain VARCHAR(100),
			coach VARCHAR(100),
			home_ground VARCHAR(100),
			matches_played INTEGER DEFAULT 0,
			matches_won INTEGER DEFAULT 0,
			matches_lost INTEGER DEFAULT 0,
			matches_tied INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// 球员表 (累计计数器为统计真值，比率一律读取时推导)
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			team_id BIGINT NOT NULL REFERENCES teams(id),
			jersey_number INTEGER,
			role VARCHAR(20) NOT NULL,
			batting_style VARCHAR(20) DEFAULT 'right_hand',
			bowling_style VARCHAR(50),
			matches_played INTEGER DEFAULT 0,
			total_runs INTEGER DEFAULT 0,
			balls_faced INTEGER DEFAULT 0,
			fours INTEGER DEFAULT 0,
			sixes INTEGER DEFAULT 0,
			total_wickets INTEGER DEFAULT 0,
			balls_bowled INTEGER DEFAULT 0,
			runs_conceded INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_team_id ON players(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_players_name ON players(name)`,

		// 比赛表
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			team1_id BIGINT NOT NULL REFERENCES teams(id),
			team2_id BIGINT NOT NULL REFERENCES teams(id),
			venue VARCHAR(200) NOT NULL,
			match_date TIMESTAMP NOT NULL,
			match_type VARCHAR(10) DEFAULT 'T20',
			overs_per_innings INTEGER DEFAULT 20,
			status VARCHAR(20) DEFAULT 'upcoming',
			toss_winner_id BIGINT,
			toss_decision VARCHAR(10),
			winner_id BIGINT,
			result_type VARCHAR(20),
			result_margin INTEGER,
			current_innings INTEGER DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_match_date ON matches(match_date)`,

		// 局表 (当前击球手/投球手槽位以 JSONB 内嵌)
		`CREATE TABLE IF NOT EXISTS innings (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			batting_team_id BIGINT NOT NULL,
			bowling_team_id BIGINT NOT NULL,
			innings_number INTEGER NOT NULL,
			total_runs INTEGER DEFAULT 0,
			total_wickets INTEGER DEFAULT 0,
			total_balls INTEGER DEFAULT 0,
			extras INTEGER DEFAULT 0,
			deliveries INTEGER DEFAULT 0,
			current_run_rate DOUBLE PRECISION DEFAULT 0,
			status VARCHAR(20) DEFAULT 'not_started',
			current_batsmen JSONB DEFAULT '[]',
			current_bowler JSONB DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(match_id, innings_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_innings_match_id ON innings(match_id)`,

		// 逐球记录表 (追加式，一局的规范历史)
		`CREATE TABLE IF NOT EXISTS ball_by_ball (
			id BIGSERIAL PRIMARY KEY,
			innings_id BIGINT NOT NULL REFERENCES innings(id),
			seq INTEGER NOT NULL,
			over_number INTEGER NOT NULL,
			ball_number INTEGER NOT NULL,
			striker_id BIGINT NOT NULL,
			non_striker_id BIGINT NOT NULL,
			bowler_id BIGINT NOT NULL,
			runs_scored INTEGER DEFAULT 0,
			extras INTEGER DEFAULT 0,
			extra_type VARCHAR(10) DEFAULT 'none',
			wicket_taken BOOLEAN DEFAULT FALSE,
			dismissal_type VARCHAR(20) DEFAULT 'none',
			dismissed_player_id BIGINT,
			fielder_id BIGINT,
			commentary TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(innings_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ball_by_ball_over ON ball_by_ball(innings_id, over_number, ball_number)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
