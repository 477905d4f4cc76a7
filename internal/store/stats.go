package store

import (
	"context"
	"os"

	"github.com/rcliao/botman/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string     `json:"db_path"`
	DBSizeBytes      int64      `json:"db_size_bytes"`
	Words            int        `json:"words"`
	Edges            int        `json:"edges"`
	TotalOccurrences int64      `json:"total_occurrences"`
	Sentences        int64      `json:"sentences"`
	Settings         int        `json:"settings"`
	TopTransitions   []Frequent `json:"top_transitions,omitempty"`
}

// Frequent is one of the most used transitions.
type Frequent struct {
	Prev        string `json:"prev"`
	Next        string `json:"next"`
	Occurrences int64  `json:"occurrences"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&st.Words); err != nil {
		return st, storageErr("count words", err)
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(occurrences), 0) FROM edges`).Scan(&st.Edges, &st.TotalOccurrences)
	if err != nil {
		return st, storageErr("count edges", err)
	}
	// Every ingested line adds exactly one edge out of the start sentinel.
	s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(occurrences), 0) FROM edges WHERE prev_id = ?`, model.Sentinel).Scan(&st.Sentences)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&st.Settings)

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(p.token, ''), COALESCE(n.token, ''), e.occurrences
		FROM edges e
		LEFT JOIN words p ON p.id = e.prev_id
		LEFT JOIN words n ON n.id = e.next_id
		WHERE e.prev_id != ? AND e.next_id != ?
		ORDER BY e.occurrences DESC, e.rowid
		LIMIT 10`, model.Sentinel, model.Sentinel)
	if err != nil {
		return st, storageErr("top transitions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Frequent
		if err := rows.Scan(&f.Prev, &f.Next, &f.Occurrences); err != nil {
			return st, storageErr("scan transition", err)
		}
		st.TopTransitions = append(st.TopTransitions, f)
	}

	return st, rows.Err()
}
