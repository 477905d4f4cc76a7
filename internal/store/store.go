// Package store provides the word graph storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/botman/internal/model"
)

// Graph is the word graph as seen by ingestion and generation.
// Node ids are word ids or model.Sentinel.
type Graph interface {
	// InternWord returns the id of token, assigning a new one on first sight.
	InternWord(ctx context.Context, token string) (int64, error)

	// LookupWordID returns the id of token without creating it.
	LookupWordID(ctx context.Context, token string) (int64, bool, error)

	// ResolveWord returns the token for id. Sentinels never resolve.
	ResolveWord(ctx context.Context, id int64) (string, bool, error)

	// BumpEdge creates the prev->next edge with one occurrence or adds one to it.
	BumpEdge(ctx context.Context, prev, next int64) error

	// EdgesFrom lists the outgoing transitions of id, in insertion order.
	EdgesFrom(ctx context.Context, id int64) ([]model.Neighbor, error)

	// EdgesTo lists the incoming transitions of id, in insertion order.
	EdgesTo(ctx context.Context, id int64) ([]model.Neighbor, error)
}

// Store is a Graph with transactional scopes and the settings relation.
type Store interface {
	Graph

	// Update runs fn in a single write transaction. Nothing fn did is kept
	// if it returns an error.
	Update(ctx context.Context, fn func(Graph) error) error

	// View runs fn against a consistent read snapshot.
	View(ctx context.Context, fn func(Graph) error) error

	// Settings returns every stored setting.
	Settings(ctx context.Context) (map[string]string, error)

	// PutSetting inserts or replaces a setting.
	PutSetting(ctx context.Context, key, value string) error

	// Close closes the store.
	Close() error
}
