package activation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BatchLog appends human-readable progress lines to a per-account,
// per-day log file so long activation runs can be watched with tail -f.
type BatchLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// OpenBatchLog creates the log directory and returns a log writing to
// callhub_activation_<account>_<YYYY-MM-DD>.log. An empty dir means the
// OS temp directory.
func OpenBatchLog(dir, account string) (*BatchLog, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("callhub_activation_%s_%s.log", account, time.Now().Format("2006-01-02"))
	return &BatchLog{path: filepath.Join(dir, name), now: time.Now}, nil
}

// Path returns the log file path.
func (l *BatchLog) Path() string { return l.path }

// Printf appends one timestamped line. Logging failures are swallowed so
// they never interrupt an activation run.
func (l *BatchLog) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s - %s\n", l.now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
}
