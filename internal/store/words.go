package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/botman/internal/model"
)

// WordInfo is a word with its degree in the graph.
type WordInfo struct {
	model.Word
	Outgoing int64 `json:"outgoing"`
	Incoming int64 `json:"incoming"`
}

// Transitions lists every learned neighbor of a word.
type Transitions struct {
	Word model.Word       `json:"word"`
	Next []model.Neighbor `json:"next"`
	Prev []model.Neighbor `json:"prev"`
}

// SearchWords finds words containing the given substring, most used first.
func (s *SQLiteStore) SearchWords(ctx context.Context, substr string, limit int) ([]WordInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(substr)
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.token,
		       COALESCE((SELECT SUM(occurrences) FROM edges WHERE prev_id = w.id), 0) AS outgoing,
		       COALESCE((SELECT SUM(occurrences) FROM edges WHERE next_id = w.id), 0) AS incoming
		FROM words w
		WHERE w.token LIKE ? ESCAPE '\'
		ORDER BY outgoing + incoming DESC, w.id
		LIMIT ?`, "%"+escaped+"%", limit)
	if err != nil {
		return nil, storageErr("search words", err)
	}
	defer rows.Close()

	var results []WordInfo
	for rows.Next() {
		var w WordInfo
		if err := rows.Scan(&w.ID, &w.Token, &w.Outgoing, &w.Incoming); err != nil {
			return nil, storageErr("scan word", err)
		}
		results = append(results, w)
	}
	return results, rows.Err()
}

// Neighbors returns the outgoing and incoming transitions of token.
func (s *SQLiteStore) Neighbors(ctx context.Context, token string) (*Transitions, error) {
	t := &Transitions{}
	err := s.View(ctx, func(g Graph) error {
		id, ok, err := g.LookupWordID(ctx, token)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("word %q: %w", token, ErrNotFound)
		}
		t.Word = model.Word{ID: id, Token: token}
		if t.Next, err = g.EdgesFrom(ctx, id); err != nil {
			return err
		}
		t.Prev, err = g.EdgesTo(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
