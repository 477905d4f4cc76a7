package settings

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	kv   map[string]string
	fail error
}

func (m *memBackend) Settings(ctx context.Context) (map[string]string, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := map[string]string{}
	for k, v := range m.kv {
		out[k] = v
	}
	return out, nil
}

func (m *memBackend) PutSetting(ctx context.Context, key, value string) error {
	if m.fail != nil {
		return m.fail
	}
	m.kv[key] = value
	return nil
}

func load(t *testing.T, kv map[string]string) (*Settings, *memBackend) {
	t.Helper()
	b := &memBackend{kv: kv}
	s, err := Load(context.Background(), b)
	require.NoError(t, err)
	return s, b
}

func TestDefaults(t *testing.T) {
	s, _ := load(t, map[string]string{})

	rate, err := s.ReplyRate()
	require.NoError(t, err)
	assert.Equal(t, DefaultReplyRate, rate)

	mult, err := s.HighlightMultiplier()
	require.NoError(t, err)
	assert.Equal(t, DefaultHighlightMultiplier, mult)

	assert.True(t, s.HighlightLearn())
	assert.Equal(t, "/", s.CommandSign())
	assert.Empty(t, s.Aliases())
}

func TestMalformedReplyRateFallsBack(t *testing.T) {
	for _, raw := range []string{"lots", "101", "-1", ""} {
		s, _ := load(t, map[string]string{KeyReplyRate: raw})
		rate, err := s.ReplyRate()
		assert.Equal(t, DefaultReplyRate, rate, raw)
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr), "value %q", raw)
		assert.Equal(t, KeyReplyRate, cerr.Key)
	}

	s, _ := load(t, map[string]string{KeyReplyRate: " 40 "})
	rate, err := s.ReplyRate()
	require.NoError(t, err)
	assert.Equal(t, 40, rate)
}

func TestWriteThrough(t *testing.T) {
	s, b := load(t, map[string]string{})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyReplyRate, "10"))
	assert.Equal(t, "10", b.kv[KeyReplyRate])
	v, ok := s.Get(KeyReplyRate)
	assert.True(t, ok)
	assert.Equal(t, "10", v)

	b.fail = errors.New("disk gone")
	assert.Error(t, s.Set(ctx, KeyReplyRate, "99"))
	v, _ = s.Get(KeyReplyRate)
	assert.Equal(t, "10", v, "memory must not change when the write fails")

	assert.Error(t, s.Set(ctx, "", "x"))
}

func TestAbsentVersusEmpty(t *testing.T) {
	s, _ := load(t, map[string]string{KeyAliases: ""})
	v, ok := s.Get(KeyAliases)
	assert.True(t, ok)
	assert.Equal(t, "", v)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestAliases(t *testing.T) {
	s, _ := load(t, map[string]string{KeyAliases: " Botman, ,BM ,robot"})
	assert.Equal(t, []string{"botman", "bm", "robot"}, s.Aliases())
}

func TestHighlightLearn(t *testing.T) {
	cases := map[string]bool{"y": true, "Yes": true, "n": false, "No": false, "nope": false, " ": true}
	for raw, want := range cases {
		s, _ := load(t, map[string]string{KeyHighlightLearn: raw})
		assert.Equal(t, want, s.HighlightLearn(), raw)
	}
}

func TestLoadFailure(t *testing.T) {
	_, err := Load(context.Background(), &memBackend{fail: errors.New("locked")})
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	s, b := load(t, map[string]string{})
	ctx := context.Background()

	doc := `
replyrate: 30
highlightlearn: no
aliases:
  - botman
  - bm
commandsign: "!"
empty:
`
	n, err := s.LoadYAML(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "botman,bm", b.kv[KeyAliases])
	assert.False(t, s.HighlightLearn())
	assert.Equal(t, "!", s.CommandSign())
	v, ok := s.Get("empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	var buf bytes.Buffer
	require.NoError(t, s.DumpYAML(&buf))
	assert.Contains(t, buf.String(), "replyrate: \"30\"")
	assert.Contains(t, buf.String(), "aliases: botman,bm")
}

func TestYAMLRejectsNested(t *testing.T) {
	s, _ := load(t, map[string]string{})
	_, err := s.LoadYAML(context.Background(), strings.NewReader("irc:\n  server: x\n"))
	assert.Error(t, err)
}
