// Package reply decides when the bot speaks without being asked.
package reply

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/dice"
)

// Countdown bounds for the per-conversation counter.
const (
	CounterMin = 15
	CounterMax = 25
)

// Conversations beyond this many are forgotten least recently used first;
// a forgotten conversation is re-seeded when it speaks again.
const maxConversations = 4096

// RateSource provides the configured reply rate.
type RateSource interface {
	ReplyRate() (int, error)
}

// Policy combines the reply-rate dice throw with per-conversation countdowns.
type Policy struct {
	rates  RateSource
	src    dice.Source
	logger *zap.Logger

	mu       sync.Mutex
	counters *lru.Cache[string, int]
	badRate  string
}

// New creates a Policy. A nil logger disables logging.
func New(rates RateSource, src dice.Source, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		src = dice.System()
	}
	counters, _ := lru.New[string, int](maxConversations)
	return &Policy{
		rates:    rates,
		src:      src,
		logger:   logger.Named("reply"),
		counters: counters,
	}
}

// Rate returns the reply rate, falling back to the default on bad config.
func (p *Policy) Rate() int {
	rate, err := p.rates.ReplyRate()
	if err != nil {
		p.mu.Lock()
		if msg := err.Error(); msg != p.badRate {
			p.badRate = msg
			p.logger.Warn("Invalid reply rate, using default",
				zap.Error(err), zap.Int("default", rate))
		}
		p.mu.Unlock()
	}
	return rate
}

// DecideReply throws a d100 and succeeds when it lands under rate*multiplier.
func (p *Policy) DecideReply(multiplier int) bool {
	if multiplier < 1 {
		multiplier = 1
	}
	p.mu.Lock()
	draw := dice.Between(p.src, 1, 100)
	p.mu.Unlock()
	return draw < int64(p.Rate()*multiplier)
}

// Counter returns the remaining countdown for a conversation, seeding it on
// first sight.
func (p *Policy) Counter(conversation string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counterLocked(conversation)
}

// ResetCounter re-seeds the countdown of a conversation.
func (p *Policy) ResetCounter(conversation string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seedLocked(conversation)
}

// Tick counts one learned message down. It reports true when the countdown
// ran out, in which case the counter has already been re-seeded.
func (p *Policy) Tick(conversation string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.counterLocked(conversation) - 1
	if n <= 0 {
		p.seedLocked(conversation)
		return true
	}
	p.counters.Add(conversation, n)
	return false
}

func (p *Policy) counterLocked(conversation string) int {
	if n, ok := p.counters.Get(conversation); ok {
		return n
	}
	return p.seedLocked(conversation)
}

func (p *Policy) seedLocked(conversation string) int {
	n := int(dice.Between(p.src, CounterMin, CounterMax))
	p.counters.Add(conversation, n)
	p.logger.Debug("Conversation counter seeded",
		zap.String("conversation", conversation), zap.Int("counter", n))
	return n
}
