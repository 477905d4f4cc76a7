// Package feed teaches the bot from plain text files, one sentence per line.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/model"
)

// MaxLineSize is the longest line accepted from a file.
const MaxLineSize = 1 << 20

// Ingester learns a single line.
type Ingester interface {
	Ingest(ctx context.Context, line string) (*model.IngestResult, error)
}

// Result counts what a feed learned.
type Result struct {
	Files   int `json:"files"`
	Lines   int `json:"lines"`
	Skipped int `json:"skipped"`
	Tokens  int `json:"tokens"`
}

func (r *Result) add(o Result) {
	r.Files += o.Files
	r.Lines += o.Lines
	r.Skipped += o.Skipped
	r.Tokens += o.Tokens
}

// Normalize prepares a raw line for learning: carriage returns are dropped,
// tabs become spaces and surrounding whitespace is trimmed.
func Normalize(line string) string {
	line = strings.ReplaceAll(line, "\r", "")
	line = strings.ReplaceAll(line, "\t", " ")
	return strings.TrimSpace(line)
}

// Feeder pushes normalized lines into an Ingester.
type Feeder struct {
	ingester Ingester
	logger   *zap.Logger
}

// New creates a Feeder.
func New(ing Ingester, logger *zap.Logger) *Feeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feeder{ingester: ing, logger: logger.Named("feed")}
}

// Feed learns every non-blank line of r. It stops at the first failure;
// lines learned before it stay learned.
func (f *Feeder) Feed(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := Normalize(sc.Text())
		if line == "" {
			res.Skipped++
			continue
		}
		ir, err := f.ingester.Ingest(ctx, line)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", res.Lines+res.Skipped+1, err)
		}
		res.Lines++
		res.Tokens += len(ir.Tokens)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read: %w", err)
	}
	return res, nil
}

// FeedFile learns every line of the file at path.
func (f *Feeder) FeedFile(ctx context.Context, path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	res, err := f.Feed(ctx, file)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Files = 1
	f.logger.Info("File fed",
		zap.String("path", path), zap.Int("lines", res.Lines), zap.Int("skipped", res.Skipped))
	return res, nil
}

// FeedFiles feeds each path in order.
func (f *Feeder) FeedFiles(ctx context.Context, paths ...string) (Result, error) {
	var total Result
	for _, p := range paths {
		res, err := f.FeedFile(ctx, p)
		total.add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
