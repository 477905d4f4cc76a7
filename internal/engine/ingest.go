package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/model"
	"github.com/rcliao/botman/internal/store"
)

// Tokenize splits a line on single spaces. Consecutive spaces yield empty
// tokens, which are learned like any other word. Blank lines yield nothing.
func Tokenize(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return strings.Split(line, " ")
}

// Ingest learns one line: every token is interned and the chain
// START->w0->...->wn-1->END is bumped, all in one transaction.
func (e *Engine) Ingest(ctx context.Context, line string) (*model.IngestResult, error) {
	res := &model.IngestResult{Multiplier: 1}
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return res, nil
	}

	err := e.store.Update(ctx, func(g store.Graph) error {
		ids := make([]int64, len(tokens))
		for i, tok := range tokens {
			id, err := g.InternWord(ctx, tok)
			if err != nil {
				return err
			}
			ids[i] = id
		}

		prev := model.Sentinel
		for _, id := range ids {
			if err := g.BumpEdge(ctx, prev, id); err != nil {
				return err
			}
			prev = id
		}
		return g.BumpEdge(ctx, prev, model.Sentinel)
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	e.logger.Debug("Line ingested", zap.Int("tokens", len(tokens)))
	res.Tokens = tokens
	return res, nil
}
