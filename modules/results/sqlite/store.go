package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aisuko/rp-needle/internal/results"
)

// Record inserts one trial record. A null score is stored as SQL NULL,
// keeping missing scores distinct from zero in later pivots.
func (s *Store) Record(ctx context.Context, rec results.Record) error {
	needlesJSON, err := json.Marshal(rec.Needles)
	if err != nil {
		return fmt.Errorf("sqlite: marshal needles: %w", err)
	}

	var score sql.NullFloat64
	if rec.Score.Valid {
		score = sql.NullFloat64{Float64: rec.Score.Value, Valid: true}
	}

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trial_results
			(model, context_length, depth_percent, repeat, needles, question,
			 response, score, status, error, attempts, duration_ns, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Model, rec.Length, rec.Depth, rec.Repeat,
		string(needlesJSON), rec.Question, rec.Response,
		score, string(rec.Status), rec.Error, rec.Attempts,
		int64(rec.Duration), startedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert trial result: %w", err)
	}
	return nil
}

// Records loads all stored trial records for a model, newest last.
func (s *Store) Records(ctx context.Context, model string) ([]results.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, context_length, depth_percent, repeat, needles, question,
		       response, score, status, error, attempts, duration_ns, started_at
		FROM trial_results
		WHERE model = ?
		ORDER BY id`,
		model,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query trial results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []results.Record
	for rows.Next() {
		var rec results.Record
		var needlesJSON, status, startedAt string
		var score sql.NullFloat64
		var duration int64
		if err := rows.Scan(&rec.Model, &rec.Length, &rec.Depth, &rec.Repeat,
			&needlesJSON, &rec.Question, &rec.Response, &score, &status,
			&rec.Error, &rec.Attempts, &duration, &startedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan trial result: %w", err)
		}
		if err := json.Unmarshal([]byte(needlesJSON), &rec.Needles); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal needles: %w", err)
		}
		if score.Valid {
			rec.Score = results.ScoreOf(score.Float64)
		}
		rec.Status = results.Status(status)
		rec.Duration = time.Duration(duration)
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate trial results: %w", err)
	}
	return out, nil
}
