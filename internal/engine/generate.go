package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/model"
	"github.com/rcliao/botman/internal/store"
)

// GenerateParams selects how a walk is started.
type GenerateParams struct {
	// Seed starts the walk from its last word (first when Invert) and is
	// kept at the head (tail) of the output.
	Seed string

	// Invert walks incoming edges, building the sentence backward.
	Invert bool

	// Ingested, when Seed is blank, may seed the walk from the line just
	// learned if the reply dice succeed.
	Ingested *model.IngestResult
}

// A walk normally appends far fewer words than this; it guards against
// loops of empty tokens that never grow the sentence.
const maxSteps = 2 * MaxSentence

// Generate walks the graph and returns a sentence, which may be empty when
// nothing has been learned. The graph is never modified.
func (e *Engine) Generate(ctx context.Context, p GenerateParams) (string, error) {
	var sentence string
	err := e.store.View(ctx, func(g store.Graph) error {
		w := &walk{engine: e, graph: g, invert: p.Invert, node: model.Sentinel}
		if err := w.seed(ctx, p); err != nil {
			return err
		}
		if err := w.run(ctx); err != nil {
			return err
		}
		sentence = w.sentence
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	e.logger.Debug("Sentence generated",
		zap.Bool("invert", p.Invert), zap.Int("length", utf8.RuneCountInString(sentence)))
	return sentence, nil
}

type walk struct {
	engine   *Engine
	graph    store.Graph
	invert   bool
	node     int64
	sentence string
	words    int
}

func (w *walk) seed(ctx context.Context, p GenerateParams) error {
	if seed := strings.TrimSpace(p.Seed); seed != "" {
		w.sentence = truncate(seed, MaxSentence)
		tokens := strings.Split(w.sentence, " ")
		tok := tokens[len(tokens)-1]
		if w.invert {
			tok = tokens[0]
		}
		id, ok, err := w.graph.LookupWordID(ctx, tok)
		if err != nil {
			return err
		}
		if ok {
			w.node = id
		}
		return nil
	}

	in := p.Ingested
	if in.Empty() || w.engine.decider == nil || !w.engine.decider.DecideReply(in.Multiplier) {
		return nil
	}
	tok := in.Last()
	if w.invert {
		tok = in.First()
	}
	id, ok, err := w.graph.LookupWordID(ctx, tok)
	if err != nil || !ok {
		return err
	}
	if utf8.RuneCountInString(tok) > MaxSentence {
		return nil
	}
	w.node = id
	w.sentence = tok
	w.words = 1
	return nil
}

func (w *walk) run(ctx context.Context) error {
	restarted := false
	for step := 0; step < maxSteps; step++ {
		cands, err := w.candidates(ctx)
		if err != nil {
			return err
		}

		var total, words int64
		for _, c := range cands {
			total += c.Occurrences
			if !c.IsSentinel() {
				words += c.Occurrences
			}
		}

		// A start that has only ever been followed by the sentence boundary
		// falls back once to the whole corpus.
		if w.words == 0 && words == 0 && total > 0 && !restarted && w.node != model.Sentinel {
			restarted = true
			w.node = model.Sentinel
			continue
		}
		if total == 0 || (w.words == 0 && words == 0) {
			return nil
		}

		var pick model.Neighbor
		if w.words == 0 {
			// Same distribution as redrawing whenever the boundary comes up.
			pick = w.choose(cands, words, true)
		} else {
			pick = w.choose(cands, total, false)
		}
		if pick.IsSentinel() {
			return nil
		}

		next := join(w.sentence, pick.Token, w.invert)
		if utf8.RuneCountInString(next) > MaxSentence {
			return nil
		}
		w.sentence = next
		w.words++
		w.node = pick.ID
	}
	return nil
}

func (w *walk) candidates(ctx context.Context) ([]model.Neighbor, error) {
	if w.invert {
		return w.graph.EdgesTo(ctx, w.node)
	}
	return w.graph.EdgesFrom(ctx, w.node)
}

// choose picks a candidate with probability proportional to its
// occurrences. total must be the sum over the eligible candidates.
func (w *walk) choose(cands []model.Neighbor, total int64, wordsOnly bool) model.Neighbor {
	r := w.engine.intn(total)
	var cum int64
	for _, c := range cands {
		if wordsOnly && c.IsSentinel() {
			continue
		}
		cum += c.Occurrences
		if cum > r {
			return c
		}
	}
	return model.Neighbor{ID: model.Sentinel}
}

func join(sentence, word string, invert bool) string {
	if sentence == "" {
		return word
	}
	if invert {
		return word + " " + sentence
	}
	return sentence + " " + word
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
