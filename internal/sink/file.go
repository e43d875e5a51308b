// Package sink persists the discovered links. The file sink replaces its
// target on every write, so identical input always produces identical bytes.
package sink

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// FileSink writes the accumulated valid URLs to a single file, one per line.
type FileSink struct {
	path   string
	logger *zap.Logger
}

// New builds a FileSink targeting path.
func New(path string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{path: path, logger: logger}
}

// Path returns the output file location.
func (s *FileSink) Path() string {
	return s.path
}

// Write replaces the file contents with the given URLs in order. An empty
// slice truncates the file.
func (s *FileSink) Write(urls []string) error {
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write results %s: %w", s.path, err)
	}
	s.logger.Info("results written", zap.String("path", s.path), zap.Int("links", len(urls)))
	return nil
}
