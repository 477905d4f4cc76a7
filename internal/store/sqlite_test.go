package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rcliao/botman/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func occurrences(t *testing.T, s *SQLiteStore, prev, next int64) int64 {
	t.Helper()
	edges, err := s.EdgesFrom(context.Background(), prev)
	if err != nil {
		t.Fatalf("edges from %d: %v", prev, err)
	}
	for _, e := range edges {
		if e.ID == next {
			return e.Occurrences
		}
	}
	return 0
}

func TestInternWordIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.InternWord(ctx, "hello")
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	if a == model.Sentinel || a <= 0 {
		t.Errorf("expected positive id, got %d", a)
	}
	b, _ := s.InternWord(ctx, "hello")
	if a != b {
		t.Errorf("expected same id, got %d and %d", a, b)
	}
	c, _ := s.InternWord(ctx, "world")
	if c == a {
		t.Error("expected distinct ids for distinct tokens")
	}
}

func TestInternEmptyToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InternWord(ctx, "")
	if err != nil {
		t.Fatalf("intern empty: %v", err)
	}
	token, ok, _ := s.ResolveWord(ctx, id)
	if !ok || token != "" {
		t.Errorf("expected empty token to resolve, got %q ok=%v", token, ok)
	}
}

func TestLookupAndResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.LookupWordID(ctx, "missing"); err != nil || ok {
		t.Errorf("expected missing word, got ok=%v err=%v", ok, err)
	}

	id, _ := s.InternWord(ctx, "cat")
	got, ok, err := s.LookupWordID(ctx, "cat")
	if err != nil || !ok || got != id {
		t.Errorf("lookup: got %d ok=%v err=%v, want %d", got, ok, err, id)
	}

	token, ok, _ := s.ResolveWord(ctx, id)
	if !ok || token != "cat" {
		t.Errorf("resolve: got %q ok=%v", token, ok)
	}
	if _, ok, _ := s.ResolveWord(ctx, model.Sentinel); ok {
		t.Error("sentinel must not resolve")
	}
	if _, ok, _ := s.ResolveWord(ctx, id+100); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestBumpEdge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, _ := s.InternWord(ctx, "a")
	b, _ := s.InternWord(ctx, "b")

	for i := 0; i < 3; i++ {
		if err := s.BumpEdge(ctx, a, b); err != nil {
			t.Fatalf("bump: %v", err)
		}
	}
	if got := occurrences(t, s, a, b); got != 3 {
		t.Errorf("expected 3 occurrences, got %d", got)
	}

	edges, _ := s.EdgesFrom(ctx, a)
	if len(edges) != 1 {
		t.Fatalf("expected a single edge row, got %d", len(edges))
	}
	if edges[0].Token != "b" {
		t.Errorf("expected neighbor token 'b', got %q", edges[0].Token)
	}
}

func TestEdgesToAndSentinels(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	x, _ := s.InternWord(ctx, "x")
	y, _ := s.InternWord(ctx, "y")
	s.BumpEdge(ctx, model.Sentinel, x)
	s.BumpEdge(ctx, x, y)
	s.BumpEdge(ctx, y, model.Sentinel)

	in, err := s.EdgesTo(ctx, y)
	if err != nil {
		t.Fatalf("edges to: %v", err)
	}
	if len(in) != 1 || in[0].ID != x || in[0].Token != "x" {
		t.Errorf("unexpected incoming edges of y: %+v", in)
	}

	in, _ = s.EdgesTo(ctx, x)
	if len(in) != 1 || !in[0].IsSentinel() {
		t.Errorf("expected x to be preceded by the sentinel, got %+v", in)
	}

	out, _ := s.EdgesFrom(ctx, y)
	if len(out) != 1 || !out[0].IsSentinel() {
		t.Errorf("expected y to be followed by the sentinel, got %+v", out)
	}
}

func TestEdgesInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, _ := s.InternWord(ctx, "a")
	var want []int64
	for _, tok := range []string{"z", "m", "b"} {
		id, _ := s.InternWord(ctx, tok)
		s.BumpEdge(ctx, a, id)
		want = append(want, id)
	}
	s.BumpEdge(ctx, a, want[0])

	got, _ := s.EdgesFrom(ctx, a)
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("edge %d: expected id %d, got %d", i, want[i], got[i].ID)
		}
	}
}

func TestUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.Update(ctx, func(g Graph) error {
		a, err := g.InternWord(ctx, "ghost")
		if err != nil {
			return err
		}
		if err := g.BumpEdge(ctx, model.Sentinel, a); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, ok, _ := s.LookupWordID(ctx, "ghost"); ok {
		t.Error("word from a failed update must not persist")
	}
	if edges, _ := s.EdgesFrom(ctx, model.Sentinel); len(edges) != 0 {
		t.Errorf("expected no edges, got %d", len(edges))
	}
}

func TestUpdateCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var id int64
	err := s.Update(ctx, func(g Graph) error {
		var err error
		id, err = g.InternWord(ctx, "kept")
		if err != nil {
			return err
		}
		return g.BumpEdge(ctx, model.Sentinel, id)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := occurrences(t, s, model.Sentinel, id); got != 1 {
		t.Errorf("expected 1 occurrence, got %d", got)
	}
}

func TestConcurrentBumps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, _ := s.InternWord(ctx, "a")
	b, _ := s.InternWord(ctx, "b")

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := s.Update(ctx, func(g Graph) error { return g.BumpEdge(ctx, a, b) }); err != nil {
					t.Errorf("bump: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := occurrences(t, s, a, b); got != workers*perWorker {
		t.Errorf("expected %d occurrences, got %d", workers*perWorker, got)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	kv, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if len(kv) != 0 {
		t.Errorf("expected no settings, got %v", kv)
	}

	s.PutSetting(ctx, "replyrate", "10")
	s.PutSetting(ctx, "replyrate", "30")
	s.PutSetting(ctx, "aliases", "")

	kv, _ = s.Settings(ctx)
	if kv["replyrate"] != "30" {
		t.Errorf("expected last write to win, got %q", kv["replyrate"])
	}
	if v, ok := kv["aliases"]; !ok || v != "" {
		t.Errorf("expected present empty value, got %q ok=%v", v, ok)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	id, _ := s.InternWord(ctx, "durable")
	s.BumpEdge(ctx, model.Sentinel, id)
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	got, ok, _ := s.LookupWordID(ctx, "durable")
	if !ok || got != id {
		t.Errorf("expected id %d after reopen, got %d ok=%v", id, got, ok)
	}
	if occurrences(t, s, model.Sentinel, id) != 1 {
		t.Error("edge not persisted")
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestStorageErrorWrapping(t *testing.T) {
	err := storageErr("op", errors.New("disk full"))
	if !IsStorageError(err) {
		t.Fatal("expected a StorageError")
	}
	if again := storageErr("outer", err); again != err {
		t.Error("expected an existing StorageError to pass through unchanged")
	}
	if storageErr("op", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
