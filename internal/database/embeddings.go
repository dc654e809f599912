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

// vectorBatchSize bounds the IN list of a single vector lookup.
const vectorBatchSize = 500

// RegisterModel records an embedding model. With active set, it becomes the
// only active model.
func (db *DB) RegisterModel(ctx context.Context, modelID string, dimension int, active bool) error {
	if modelID == "" || dimension <= 0 {
		return fmt.Errorf("register model: invalid id %q or dimension %d", modelID, dimension)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register model: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	if active {
		if _, err := tx.ExecContext(ctx, `UPDATE embedding_models SET active = FALSE WHERE active AND id <> ?`, modelID); err != nil {
			return fmt.Errorf("deactivate models: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embedding_models (id, dimension, active) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET dimension = excluded.dimension, active = excluded.active`,
		modelID, dimension, active); err != nil {
		return fmt.Errorf("register model %s: %w", modelID, err)
	}

	return tx.Commit()
}

// ActiveModelID returns the active embedding model or recommend.ErrNoEmbeddingModel.
func (db *DB) ActiveModelID(ctx context.Context) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM embedding_models WHERE active ORDER BY created_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", recommend.ErrNoEmbeddingModel
	}
	if err != nil {
		return "", fmt.Errorf("get active model: %w", err)
	}
	return id, nil
}

// UpsertEmbedding stores an item vector for a model.
func (db *DB) UpsertEmbedding(ctx context.Context, itemID int, modelID string, vector []float32) (err error) {
	defer db.observe("UPSERT", "item_embeddings", time.Now(), &err)
	if len(vector) == 0 {
		return fmt.Errorf("embedding for item %d: empty vector", itemID)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	vec, err := encodeVector(vector)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO item_embeddings (item_id, model_id, vector, updated_at)
		VALUES (?, ?, CAST(? AS FLOAT[]), ?)`,
		itemID, modelID, vec, db.now())
	if err != nil {
		return fmt.Errorf("upsert embedding for item %d: %w", itemID, err)
	}
	return nil
}

// GetVectors returns the vectors of the given items under a model. Items
// without a vector are absent from the result.
func (db *DB) GetVectors(ctx context.Context, itemIDs []int, modelID string) (out map[int][]float32, err error) {
	defer db.observe("SELECT", "item_embeddings", time.Now(), &err)
	out = make(map[int][]float32, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for start := 0; start < len(itemIDs); start += vectorBatchSize {
		batch := itemIDs[start:min(start+vectorBatchSize, len(itemIDs))]
		if err := db.loadVectorBatch(ctx, batch, modelID, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) loadVectorBatch(ctx context.Context, ids []int, modelID string, out map[int][]float32) error {
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, modelID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	//nolint:gosec // only placeholders are interpolated
	rows, err := db.conn.QueryContext(ctx, `
		SELECT item_id, CAST(vector AS VARCHAR)
		FROM item_embeddings
		WHERE model_id = ? AND item_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan vector: %w", err)
		}
		v, err := decodeVector(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", id, err)
		}
		if len(v) > 0 {
			out[id] = v
		}
	}
	return rows.Err()
}
