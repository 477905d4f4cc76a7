package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/botman/internal/model"
)

// Export dumps settings, words and edges from one read snapshot.
func (s *SQLiteStore) Export(ctx context.Context) (*model.Snapshot, error) {
	now := time.Now().UTC()
	snap := &model.Snapshot{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.New(rand.NewSource(now.UnixNano()))).String(),
		CreatedAt: now,
		Words:     []model.Word{},
		Edges:     []model.Edge{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	defer tx.Rollback()

	settings, err := tx.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, storageErr("export settings", err)
	}
	snap.Settings = map[string]string{}
	for settings.Next() {
		var k string
		var v *string
		if err := settings.Scan(&k, &v); err != nil {
			settings.Close()
			return nil, storageErr("export settings", err)
		}
		if v != nil {
			snap.Settings[k] = *v
		} else {
			snap.Settings[k] = ""
		}
	}
	settings.Close()

	words, err := tx.QueryContext(ctx, `SELECT id, token FROM words ORDER BY id`)
	if err != nil {
		return nil, storageErr("export words", err)
	}
	for words.Next() {
		var w model.Word
		if err := words.Scan(&w.ID, &w.Token); err != nil {
			words.Close()
			return nil, storageErr("export words", err)
		}
		snap.Words = append(snap.Words, w)
	}
	words.Close()

	edges, err := tx.QueryContext(ctx, `SELECT prev_id, next_id, occurrences FROM edges ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("export edges", err)
	}
	defer edges.Close()
	for edges.Next() {
		var e model.Edge
		if err := edges.Scan(&e.PrevID, &e.NextID, &e.Occurrences); err != nil {
			return nil, storageErr("export edges", err)
		}
		snap.Edges = append(snap.Edges, e)
	}

	return snap, edges.Err()
}

// ImportResult summarizes a merged snapshot.
type ImportResult struct {
	Snapshot string `json:"snapshot"`
	Words    int    `json:"words"`
	Edges    int    `json:"edges"`
	Settings int    `json:"settings"`
}

// Import merges a snapshot in one transaction. Words are matched by token,
// edge occurrences are added to existing counts and settings overwrite.
func (s *SQLiteStore) Import(ctx context.Context, snap *model.Snapshot, withSettings bool) (*ImportResult, error) {
	res := &ImportResult{Snapshot: snap.ID}
	ids := map[int64]int64{model.Sentinel: model.Sentinel}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	defer tx.Rollback()

	g := graphOps{q: tx}
	for _, w := range snap.Words {
		if w.ID == model.Sentinel {
			return nil, fmt.Errorf("word %q uses the sentinel id", w.Token)
		}
		id, err := g.InternWord(ctx, w.Token)
		if err != nil {
			return nil, err
		}
		ids[w.ID] = id
		res.Words++
	}

	for _, e := range snap.Edges {
		prev, ok := ids[e.PrevID]
		if !ok {
			return nil, fmt.Errorf("edge references unknown word id %d", e.PrevID)
		}
		next, ok := ids[e.NextID]
		if !ok {
			return nil, fmt.Errorf("edge references unknown word id %d", e.NextID)
		}
		if e.Occurrences <= 0 {
			return nil, fmt.Errorf("edge %d->%d: occurrences must be positive", e.PrevID, e.NextID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edges (prev_id, next_id, occurrences) VALUES (?, ?, ?)
			 ON CONFLICT(prev_id, next_id) DO UPDATE SET occurrences = occurrences + excluded.occurrences`,
			prev, next, e.Occurrences)
		if err != nil {
			return nil, storageErr("import edge", err)
		}
		res.Edges++
	}

	if withSettings {
		for k, v := range snap.Settings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
			if err != nil {
				return nil, storageErr("import setting", err)
			}
			res.Settings++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit", err)
	}
	return res, nil
}
