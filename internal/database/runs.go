// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/curator/internal/recommend"
)

const runColumns = `id, user_id, media_kind, COALESCE(job_id, ''), status, COALESCE(model_id, ''),
	candidate_count, selected_count, duration_ms, COALESCE(error_message, ''), started_at, completed_at,
	COALESCE(profile_rebuilt, FALSE)`

const candidateColumns = `run_id, item_id, title, COALESCE(year, 0), genres, COALESCE(source, ''),
	COALESCE(collection, ''), community_rating, COALESCE(content_rating, ''), similarity,
	novelty_score, rating_score, base_score, franchise_boost, genre_boost, interest_boost,
	COALESCE(franchise, ''), COALESCE(boost_genre, ''), COALESCE(matched_interest, ''),
	final_base, rank, diversity_score, final_score, selected, COALESCE(selected_rank, 0),
	COALESCE(explanation, '')`

// CreateRun inserts a run in its initial state.
func (db *DB) CreateRun(ctx context.Context, run *recommend.Run) (err error) {
	defer db.observe("INSERT", "recommendation_runs", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO recommendation_runs (id, user_id, media_kind, job_id, status, model_id, started_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?)`,
		run.ID, run.UserID, string(run.MediaKind), run.JobID, string(run.Status), run.ModelID, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// FinalizeRun writes the terminal state of a run.
func (db *DB) FinalizeRun(ctx context.Context, run *recommend.Run) (err error) {
	defer db.observe("UPDATE", "recommendation_runs", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var completed sql.NullTime
	if run.CompletedAt != nil {
		completed = sql.NullTime{Time: run.CompletedAt.UTC(), Valid: true}
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE recommendation_runs SET
			status = ?, model_id = NULLIF(?, ''), candidate_count = ?, selected_count = ?,
			duration_ms = ?, error_message = NULLIF(?, ''), completed_at = ?, profile_rebuilt = ?
		WHERE id = ?`,
		string(run.Status), run.ModelID, run.CandidateCount, run.SelectedCount,
		run.DurationMS, run.ErrorMessage, completed, run.ProfileRebuilt, run.ID)
	if err != nil {
		return fmt.Errorf("finalize run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // DuckDB always reports rows affected
		return fmt.Errorf("finalize run %s: run not found", run.ID)
	}
	return nil
}

// SaveCandidates writes a run's full candidate population and its evidence in one transaction.
func (db *DB) SaveCandidates(ctx context.Context, runID string, records []recommend.CandidateRecord, evidence []recommend.Evidence) (err error) {
	defer db.observe("INSERT", "recommendation_candidates", time.Now(), &err)
	if len(records) == 0 && len(evidence) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save candidates: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendation_candidates (
			run_id, item_id, title, year, genres, source, collection, community_rating, content_rating,
			similarity, novelty_score, rating_score, base_score, franchise_boost, genre_boost,
			interest_boost, franchise, boost_genre, matched_interest, final_base, rank,
			diversity_score, final_score, selected, selected_rank, explanation)
		VALUES (?, ?, ?, NULLIF(?, 0), ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''),
			?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, NULLIF(?, 0), NULLIF(?, ''))`)
	if err != nil {
		return fmt.Errorf("save candidates: prepare: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range records {
		s := &records[i].Scored
		genres, err := encodeStrings(s.Genres)
		if err != nil {
			return err
		}
		var rating sql.NullFloat64
		if s.CommunityRating != nil {
			rating = sql.NullFloat64{Float64: *s.CommunityRating, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, s.ItemID, s.Title, s.Year, genres, s.Source, s.Collection, rating, s.ContentRating,
			s.Similarity, s.NoveltyScore, s.RatingScore, s.BaseScore, s.FranchiseBoost, s.GenreBoost,
			s.InterestBoost, s.Franchise, s.BoostGenre, s.MatchedInterest, s.FinalBase, s.Rank,
			s.DiversityScore, s.FinalScore, s.Selected, s.SelectedRank, records[i].Explanation); err != nil {
			return fmt.Errorf("insert candidate %d: %w", s.ItemID, err)
		}
	}

	for _, e := range evidence {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendation_evidence (run_id, item_id, kind, reference, weight) VALUES (?, ?, ?, ?, ?)`,
			runID, e.ItemID, string(e.Kind), e.Reference, e.Weight); err != nil {
			return fmt.Errorf("insert evidence for item %d: %w", e.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save candidates: commit: %w", err)
	}
	return nil
}

// DeleteUserResults removes the runs of a user together with their candidates
// and evidence. Running rows are removed too unless listed in keep, so rows
// orphaned by a crash do not survive a regeneration. An empty kind removes
// every kind.
func (db *DB) DeleteUserResults(ctx context.Context, userID int, kind recommend.MediaKind, keep []string) (err error) {
	defer db.observe("DELETE", "recommendation_runs", time.Now(), &err)

	filter := `SELECT id FROM recommendation_runs WHERE user_id = ?`
	args := []interface{}{userID}
	if kind != "" {
		filter += ` AND media_kind = ?`
		args = append(args, string(kind))
	}
	filter, args = excludeRuns(filter, args, keep)
	return db.deleteRuns(ctx, filter, args...)
}

// DeleteAllResults removes every run except those in keep, with candidates
// and evidence.
func (db *DB) DeleteAllResults(ctx context.Context, keep []string) (err error) {
	defer db.observe("DELETE", "recommendation_runs", time.Now(), &err)

	filter, args := excludeRuns(`SELECT id FROM recommendation_runs WHERE 1 = 1`, nil, keep)
	return db.deleteRuns(ctx, filter, args...)
}

// excludeRuns appends a NOT IN clause for the kept run ids.
func excludeRuns(filter string, args []interface{}, keep []string) (string, []interface{}) {
	if len(keep) == 0 {
		return filter, args
	}
	filter += ` AND id NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
	for _, id := range keep {
		args = append(args, id)
	}
	return filter, args
}

// deleteRuns deletes the runs selected by filter, children first.
func (db *DB) deleteRuns(ctx context.Context, filter string, args ...interface{}) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete runs: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	for _, table := range []string{"recommendation_evidence", "recommendation_candidates"} {
		//nolint:gosec // table and filter are built from constants; values are bound
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id IN (`+filter+`)`, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	//nolint:gosec // filter is built from constants; values are bound
	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendation_runs WHERE id IN (`+filter+`)`, args...); err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete runs: commit: %w", err)
	}
	return nil
}

// GetRun returns a run by id, nil when it does not exist.
func (db *DB) GetRun(ctx context.Context, runID string) (*recommend.Run, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM recommendation_runs WHERE id = ?`, runID)
	return scanRun(row)
}

// LatestRun returns the most recent completed run of a user and kind, nil when none.
func (db *DB) LatestRun(ctx context.Context, userID int, kind recommend.MediaKind) (*recommend.Run, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM recommendation_runs
		WHERE user_id = ? AND media_kind = ? AND status = 'completed'
		ORDER BY started_at DESC, id DESC
		LIMIT 1`, userID, string(kind))
	return scanRun(row)
}

func scanRun(row *sql.Row) (*recommend.Run, error) {
	var (
		r         recommend.Run
		kind      string
		status    string
		completed sql.NullTime
	)
	err := row.Scan(&r.ID, &r.UserID, &kind, &r.JobID, &status, &r.ModelID,
		&r.CandidateCount, &r.SelectedCount, &r.DurationMS, &r.ErrorMessage, &r.StartedAt, &completed,
		&r.ProfileRebuilt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.MediaKind = recommend.MediaKind(kind)
	r.Status = recommend.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// ListCandidates returns a run's candidates by rank, or only the selected
// ones in selection order.
func (db *DB) ListCandidates(ctx context.Context, runID string, selectedOnly bool) (records []recommend.CandidateRecord, err error) {
	defer db.observe("SELECT", "recommendation_candidates", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + candidateColumns + ` FROM recommendation_candidates WHERE run_id = ?`
	if selectedOnly {
		query += ` AND selected ORDER BY selected_rank, rank`
	} else {
		query += ` ORDER BY rank, item_id`
	}

	rows, err := db.conn.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	records = []recommend.CandidateRecord{}
	for rows.Next() {
		var (
			rec    recommend.CandidateRecord
			genres string
			rating sql.NullFloat64
		)
		s := &rec.Scored
		if err := rows.Scan(&rec.RunID, &s.ItemID, &s.Title, &s.Year, &genres, &s.Source,
			&s.Collection, &rating, &s.ContentRating, &s.Similarity,
			&s.NoveltyScore, &s.RatingScore, &s.BaseScore, &s.FranchiseBoost, &s.GenreBoost, &s.InterestBoost,
			&s.Franchise, &s.BoostGenre, &s.MatchedInterest,
			&s.FinalBase, &s.Rank, &s.DiversityScore, &s.FinalScore, &s.Selected, &s.SelectedRank,
			&rec.Explanation); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		s.Genres = decodeStrings(genres)
		if rating.Valid {
			r := rating.Float64
			s.CommunityRating = &r
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return records, nil
}

// ListEvidence returns a run's evidence ordered by item and weight.
func (db *DB) ListEvidence(ctx context.Context, runID string) ([]recommend.Evidence, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, item_id, kind, reference, weight
		FROM recommendation_evidence
		WHERE run_id = ?
		ORDER BY item_id, weight DESC, kind, reference`, runID)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	out := []recommend.Evidence{}
	for rows.Next() {
		var (
			e    recommend.Evidence
			kind string
		)
		if err := rows.Scan(&e.RunID, &e.ItemID, &kind, &e.Reference, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		e.Kind = recommend.EvidenceKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveExplanations sets the explanation text of candidates in a run.
func (db *DB) SaveExplanations(ctx context.Context, runID string, explanations map[int]string) (err error) {
	defer db.observe("UPDATE", "recommendation_candidates", time.Now(), &err)
	if len(explanations) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save explanations: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	for itemID, text := range explanations {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recommendation_candidates SET explanation = ? WHERE run_id = ? AND item_id = ?`,
			text, runID, itemID); err != nil {
			return fmt.Errorf("save explanation for item %d: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save explanations: commit: %w", err)
	}
	return nil
}

// Ensure DB implements the run contract.
var _ recommend.RunStore = (*DB)(nil)
