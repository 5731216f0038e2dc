// FILE: logship/src/internal/source/file.go
package source

import (
	"fmt"
	"io"
	"sync"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/filter"

	"github.com/hpcloud/tail"
	"github.com/lixenwraith/log"
)

// FileSource tails a log file, following rotation when configured.
type FileSource struct {
	lineShipper
	path   string
	config tail.Config
	tailer *tail.Tail

	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// NewFileSource creates a tailing source for cfg.Path. chain may be nil.
func NewFileSource(cfg config.SourceConfig, chain *filter.Chain, out *applog.Logger, logger *log.Logger) (*FileSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source requires a path")
	}

	tailCfg := tail.Config{
		Follow:    cfg.Follow,
		ReOpen:    cfg.Follow,
		Poll:      cfg.Poll,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	// Only new lines unless asked to replay the file
	if cfg.Follow && !cfg.FromStart {
		tailCfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	s := &FileSource{
		path:     cfg.Path,
		config:   tailCfg,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	if err := s.init(cfg, chain, out, logger, "file"); err != nil {
		return nil, err
	}
	return s, nil
}

// Start opens the file and begins tailing in the background.
func (s *FileSource) Start() error {
	t, err := tail.TailFile(s.path, s.config)
	if err != nil {
		return fmt.Errorf("failed to tail file %s: %w", s.path, err)
	}
	s.tailer = t

	go s.readLoop()
	s.logger.Info("msg", "File source started",
		"component", "file_source",
		"path", s.path,
		"follow", s.config.Follow,
		"category", s.out.Category(),
		"filters", s.chain.Len())
	return nil
}

// Stop ends tailing and releases file watches.
func (s *FileSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.tailer != nil {
			if err := s.tailer.Stop(); err != nil {
				s.logger.Debug("msg", "Tailer stopped with error",
					"component", "file_source",
					"error", err)
			}
			s.tailer.Cleanup()
		}
		s.logger.Info("msg", "File source stopped",
			"component", "file_source",
			"path", s.path,
			"total_lines", s.totalLines.Load())
	})
}

// Done is closed when the file is fully read (without follow) or the
// source is stopped.
func (s *FileSource) Done() <-chan struct{} {
	return s.finished
}

// GetStats returns source statistics.
func (s *FileSource) GetStats() map[string]any {
	stats := s.stats("file")
	stats["path"] = s.path
	stats["follow"] = s.config.Follow
	return stats
}

func (s *FileSource) readLoop() {
	defer close(s.finished)

	for {
		select {
		case line, ok := <-s.tailer.Lines:
			if !ok {
				return
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				s.logger.Warn("msg", "Error reading file",
					"component", "file_source",
					"path", s.path,
					"error", line.Err)
				continue
			}
			s.emit(line.Text, false)

		case <-s.done:
			return
		}
	}
}
