package persist

import (
	"context"
	"fmt"
	"time"
)

// DeathRow is one finished hardcore run.
type DeathRow struct {
	CharID   int64     `json:"char_id"`
	Name     string    `json:"name"`
	ClassID  int32     `json:"class_id"`
	Level    int32     `json:"level"`
	Exp      int64     `json:"exp"`
	KilledBy string    `json:"killed_by"`
	DiedAt   time.Time `json:"died_at"`
}

// LeaderboardRepo records hardcore deaths and ranks them.
type LeaderboardRepo struct {
	db *DB
}

func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

func (r *LeaderboardRepo) RecordDeath(ctx context.Context, d *DeathRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO hardcore_deaths (char_id, name, class_id, level, exp, killed_by, died_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.CharID, d.Name, d.ClassID, d.Level, d.Exp, d.KilledBy, d.DiedAt,
	)
	if err != nil {
		return fmt.Errorf("record death of %s: %w", d.Name, err)
	}
	return nil
}

// Top returns the best runs, deepest level first, earliest death breaking ties.
func (r *LeaderboardRepo) Top(ctx context.Context, limit int) ([]DeathRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, name, class_id, level, exp, killed_by, died_at
		 FROM hardcore_deaths
		 ORDER BY level DESC, exp DESC, died_at
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []DeathRow
	for rows.Next() {
		var d DeathRow
		if err := rows.Scan(&d.CharID, &d.Name, &d.ClassID, &d.Level, &d.Exp, &d.KilledBy, &d.DiedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
