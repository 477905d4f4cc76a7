// Package settings holds the bot's runtime configuration. Values are read
// once from the store and every change is written through before it is
// visible in memory.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Known keys.
const (
	KeyReplyRate           = "replyrate"
	KeyAliases             = "aliases"
	KeyHighlightLearn      = "highlightlearn"
	KeyHighlightMultiplier = "highlightmultiplier"
	KeyCommandSign         = "commandsign"
)

// Defaults used when a key is absent or malformed.
const (
	DefaultReplyRate           = 25
	DefaultHighlightMultiplier = 3
	DefaultCommandSign         = "/"
)

// Backend is the durable side of the settings.
type Backend interface {
	Settings(ctx context.Context) (map[string]string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// ConfigError reports a setting whose value cannot be used.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var errOutOfRange = errors.New("out of range")

// Settings is the in-memory mirror of the settings relation.
type Settings struct {
	mu      sync.RWMutex
	kv      map[string]string
	backend Backend
}

// Load reads every setting from backend.
func Load(ctx context.Context, backend Backend) (*Settings, error) {
	kv, err := backend.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if kv == nil {
		kv = map[string]string{}
	}
	return &Settings{kv: kv, backend: backend}, nil
}

// Get returns the value of key. Absence is distinct from an empty value.
func (s *Settings) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	return v, ok
}

// Set writes key through to the backend, then updates memory.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("setting key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.PutSetting(ctx, key, value); err != nil {
		return err
	}
	s.kv[key] = value
	return nil
}

// All returns a copy of every setting.
func (s *Settings) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.kv))
	for k, v := range s.kv {
		out[k] = v
	}
	return out
}

// Keys returns the setting keys in order.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReplyRate returns the unsolicited reply percentage. A malformed value
// yields DefaultReplyRate together with a ConfigError.
func (s *Settings) ReplyRate() (int, error) {
	return s.intInRange(KeyReplyRate, DefaultReplyRate, 0, 100)
}

// HighlightMultiplier returns how much a highlight boosts the reply rate.
func (s *Settings) HighlightMultiplier() (int, error) {
	return s.intInRange(KeyHighlightMultiplier, DefaultHighlightMultiplier, 1, 100)
}

func (s *Settings) intInRange(key string, def, lo, hi int) (int, error) {
	raw, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def, &ConfigError{Key: key, Value: raw, Err: err}
	}
	if n < lo || n > hi {
		return def, &ConfigError{Key: key, Value: raw, Err: fmt.Errorf("%w [%d,%d]", errOutOfRange, lo, hi)}
	}
	return n, nil
}

// Aliases returns the lowercased names the bot answers to.
func (s *Settings) Aliases() []string {
	raw, _ := s.Get(KeyAliases)
	return ParseAliases(raw)
}

// ParseAliases splits a comma-separated alias list, dropping blanks.
func ParseAliases(raw string) []string {
	var aliases []string
	for _, a := range strings.Split(raw, ",") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases
}

// HighlightLearn reports whether messages mentioning the bot are learned.
// Only a value starting with "n" disables it.
func (s *Settings) HighlightLearn() bool {
	raw, ok := s.Get(KeyHighlightLearn)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return true
	}
	return !strings.HasPrefix(strings.ToLower(raw), "n")
}

// CommandSign returns the prefix marking bot commands.
func (s *Settings) CommandSign() string {
	raw, ok := s.Get(KeyCommandSign)
	if !ok || strings.TrimSpace(raw) == "" {
		return DefaultCommandSign
	}
	return strings.TrimSpace(raw)
}
