// FILE: logship/src/internal/source/file_test.go
package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileSource_Validation(t *testing.T) {
	out := applog.New(&recordingSink{}, "app")

	_, err := NewFileSource(config.SourceConfig{}, nil, out, log.NewLogger())
	assert.Error(t, err)

	src, err := NewFileSource(config.SourceConfig{Path: "/nonexistent/app.log"}, nil, out, log.NewLogger())
	require.NoError(t, err)
	assert.Error(t, src.Start(), "missing file rejected")
	src.Stop()
}

func TestFileSource_ReadsWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("boot ok\n[WARN] low disk\n\nbye\n"), 0600))

	sink := &recordingSink{}
	src, err := NewFileSource(config.SourceConfig{Path: path, Follow: false}, nil, applog.New(sink, "app"), log.NewLogger())
	require.NoError(t, err)
	require.NoError(t, src.Start())

	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("file source did not finish")
	}
	src.Stop()

	require.Len(t, sink.entries, 3)
	assert.Equal(t, shipped{"boot ok", core.SeverityInfo, "app"}, sink.entries[0])
	assert.Equal(t, shipped{"[WARN] low disk", core.SeverityWarning, "app"}, sink.entries[1])
	assert.Equal(t, "bye", sink.entries[2].text)

	stats := src.GetStats()
	assert.Equal(t, "file", stats["type"])
	assert.Equal(t, path, stats["path"])
	assert.Equal(t, uint64(3), stats["total_lines"])
}

func TestFileSource_FollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0600))

	sink := &recordingSink{}
	src, err := NewFileSource(config.SourceConfig{Path: path, Follow: true, Poll: true}, nil, applog.New(sink, "app"), log.NewLogger())
	require.NoError(t, err)
	require.NoError(t, src.Start())
	defer src.Stop()

	// Give the tailer time to seek to the end before appending
	time.Sleep(200 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.entries) == 1
	}, 5*time.Second, 20*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "new line", sink.entries[0].text)
}
