// FILE: logship/src/internal/source/stdin.go
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/filter"

	"github.com/lixenwraith/log"
)

const readBufferSize = 64 * 1024

// StdinSource reads newline-delimited log lines from a reader, normally
// os.Stdin.
type StdinSource struct {
	lineShipper
	reader io.Reader

	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// NewStdinSource creates a line source over r. chain may be nil.
func NewStdinSource(r io.Reader, cfg config.SourceConfig, chain *filter.Chain, out *applog.Logger, logger *log.Logger) (*StdinSource, error) {
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	s := &StdinSource{
		reader:   r,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	if err := s.init(cfg, chain, out, logger, "stdin"); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins reading in the background.
func (s *StdinSource) Start() error {
	go s.readLoop()
	s.logger.Info("msg", "Stdin source started",
		"component", "stdin_source",
		"category", s.out.Category(),
		"default_severity", s.defaultSeverity.String(),
		"filters", s.chain.Len())
	return nil
}

// Stop prevents further lines from being shipped. A read blocked on the
// underlying reader is not interrupted.
func (s *StdinSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.logger.Info("msg", "Stdin source stopped",
			"component", "stdin_source",
			"total_lines", s.totalLines.Load())
	})
}

// Done is closed when the reader is exhausted.
func (s *StdinSource) Done() <-chan struct{} {
	return s.finished
}

// GetStats returns source statistics.
func (s *StdinSource) GetStats() map[string]any {
	return s.stats("stdin")
}

func (s *StdinSource) readLoop() {
	defer close(s.finished)

	br := bufio.NewReaderSize(s.reader, readBufferSize)
	line := make([]byte, 0, readBufferSize)
	truncated := false

	for {
		select {
		case <-s.done:
			return
		default:
		}

		chunk, isPrefix, err := br.ReadLine()
		if len(chunk) > 0 && !truncated {
			line = append(line, chunk...)
			if len(line) > s.maxLineBytes {
				line = line[:runeBoundary(line, s.maxLineBytes)]
				truncated = true
			}
		}

		if err != nil {
			if len(line) > 0 {
				s.emit(string(line), truncated)
			}
			if !errors.Is(err, io.EOF) {
				s.logger.Error("msg", "Error reading stdin",
					"component", "stdin_source",
					"error", err)
			}
			return
		}
		if isPrefix {
			continue
		}

		s.emit(string(line), truncated)
		line = line[:0]
		truncated = false
	}
}
