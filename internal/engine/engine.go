// Package engine learns word transitions from lines of text and walks them
// back out as new sentences.
package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/dice"
	"github.com/rcliao/botman/internal/store"
)

// MaxSentence is the longest sentence, in characters, Generate returns.
const MaxSentence = 320

// Decider throws the reply-rate dice for ingestion-seeded generation.
type Decider interface {
	DecideReply(multiplier int) bool
}

// Engine couples the word graph with a random source.
type Engine struct {
	store   store.Store
	decider Decider
	logger  *zap.Logger

	mu  sync.Mutex
	src dice.Source
}

// New creates an Engine. decider may be nil, in which case ingestion
// results never seed a walk. A nil src uses dice.System.
func New(st store.Store, decider Decider, src dice.Source, logger *zap.Logger) *Engine {
	if src == nil {
		src = dice.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:   st,
		decider: decider,
		src:     src,
		logger:  logger.Named("engine"),
	}
}

func (e *Engine) intn(n int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src.Intn(n)
}
