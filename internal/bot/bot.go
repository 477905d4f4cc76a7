// Package bot turns incoming chat messages into learning and replies. It is
// the boundary chat transports call; it knows nothing about networks.
package bot

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/engine"
	"github.com/rcliao/botman/internal/model"
	"github.com/rcliao/botman/internal/reply"
	"github.com/rcliao/botman/internal/settings"
)

// Command names, written after the command sign.
const (
	CommandPhrase    = "phrase"
	CommandPhraseInv = "phraseinv"
)

// Message is one line received from a conversation.
type Message struct {
	Conversation string
	Text         string
}

// Reply is what the bot wants to say back, if anything.
type Reply struct {
	Text string `json:"text"`
	// Sent is false when the bot stays quiet.
	Sent bool `json:"sent"`
	// Forced marks replies triggered by the conversation countdown rather
	// than by the message itself; transports usually do not thread them.
	Forced bool `json:"forced,omitempty"`
	// Command marks replies to an explicit command.
	Command bool `json:"command,omitempty"`
}

// Responder applies the bot's reply rules to incoming messages.
type Responder struct {
	engine   *engine.Engine
	policy   *reply.Policy
	settings *settings.Settings
	logger   *zap.Logger

	mu    sync.RWMutex
	names []string
}

// New creates a Responder.
func New(eng *engine.Engine, policy *reply.Policy, st *settings.Settings, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{
		engine:   eng,
		policy:   policy,
		settings: st,
		logger:   logger.Named("bot"),
	}
}

// AddAlias registers a name the bot answers to for this process only,
// typically its nickname on the transport.
func (r *Responder) AddAlias(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return
		}
	}
	r.names = append(r.names, name)
}

// Highlighted reports whether text mentions one of the bot's aliases.
// Matching is a plain substring test on the lowercased text.
func (r *Responder) Highlighted(text string) bool {
	lower := strings.ToLower(text)
	for _, alias := range r.settings.Aliases() {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, alias := range r.names {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	return false
}

// Receive handles one message.
func (r *Responder) Receive(ctx context.Context, msg Message) (Reply, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return Reply{}, nil
	}
	r.policy.Counter(msg.Conversation)

	if sign := r.settings.CommandSign(); strings.HasPrefix(msg.Text, sign) {
		return r.command(ctx, msg.Text[len(sign):])
	}

	if r.Highlighted(msg.Text) {
		return r.highlighted(ctx, msg)
	}

	res, err := r.engine.Ingest(ctx, msg.Text)
	if err != nil {
		return Reply{}, err
	}
	forced := r.policy.Tick(msg.Conversation)
	if !forced && !r.policy.DecideReply(1) {
		return Reply{}, nil
	}
	r.logger.Debug("Replying",
		zap.String("conversation", msg.Conversation), zap.Bool("forced", forced))
	out, err := r.say(ctx, engine.GenerateParams{Ingested: res})
	out.Forced = forced
	return out, err
}

func (r *Responder) command(ctx context.Context, line string) (Reply, error) {
	name, args, _ := strings.Cut(line, " ")
	var p engine.GenerateParams
	switch name {
	case CommandPhrase:
		p = engine.GenerateParams{Seed: args}
	case CommandPhraseInv:
		p = engine.GenerateParams{Seed: args, Invert: true}
	default:
		return Reply{}, nil
	}
	out, err := r.say(ctx, p)
	out.Command = true
	return out, err
}

func (r *Responder) highlighted(ctx context.Context, msg Message) (Reply, error) {
	mult, err := r.settings.HighlightMultiplier()
	if err != nil {
		r.logger.Warn("Invalid highlight multiplier, using default", zap.Error(err))
	}

	var res *model.IngestResult
	if r.settings.HighlightLearn() {
		if res, err = r.engine.Ingest(ctx, msg.Text); err != nil {
			return Reply{}, err
		}
	} else {
		res = &model.IngestResult{Tokens: engine.Tokenize(msg.Text)}
	}
	res.Multiplier = mult

	if !r.policy.DecideReply(mult) {
		return Reply{}, nil
	}
	r.logger.Debug("Replying to highlight", zap.String("conversation", msg.Conversation))
	return r.say(ctx, engine.GenerateParams{Ingested: res})
}

func (r *Responder) say(ctx context.Context, p engine.GenerateParams) (Reply, error) {
	text, err := r.engine.Generate(ctx, p)
	if err != nil {
		return Reply{}, err
	}
	text = strings.NewReplacer("\r", "", "\n", "").Replace(text)
	return Reply{Text: text, Sent: text != ""}, nil
}
