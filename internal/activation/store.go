package activation

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RecordState is the persisted outcome of one activation attempt.
type RecordState struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	URL       string    `json:"url,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Job is the persisted progress of an activation run for one account.
// Records are keyed by Record.Key (username, or URL when absent).
type Job struct {
	Account        string                 `json:"account"`
	TotalCount     int                    `json:"totalCount"`
	CompletedCount int                    `json:"completedCount"`
	BatchSize      int                    `json:"batchSize"`
	LogFilePath    string                 `json:"logFilePath,omitempty"`
	InProgress     bool                   `json:"inProgress"`
	Records        map[string]RecordState `json:"records"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// Succeeded reports whether key already has a successful activation on
// record. Failed records are retried on a later run, success is terminal.
func (j *Job) Succeeded(key string) bool {
	return j.Records[key].Status == StatusSuccess
}

func (j *Job) recomputeCompleted() {
	n := 0
	for _, rs := range j.Records {
		if rs.Status == StatusSuccess || rs.Status == StatusFailed {
			n++
		}
	}
	j.CompletedCount = n
}

// Store persists activation jobs as one JSON file per account under dir.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a store rooted at dir. An empty dir means the OS temp
// directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir, now: time.Now}
}

// Path returns the state file path for an account.
func (s *Store) Path(account string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(account)
	return filepath.Join(s.dir, "callhub_activation_state_"+safe+".json")
}

// Load returns the job for an account. A missing state file yields an
// empty job, not an error.
func (s *Store) Load(account string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(account)
}

func (s *Store) loadLocked(account string) (*Job, error) {
	data, err := os.ReadFile(s.Path(account))
	if os.IsNotExist(err) {
		return &Job{Account: account, Records: make(map[string]RecordState)}, nil
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	if job.Records == nil {
		job.Records = make(map[string]RecordState)
	}
	if job.Account == "" {
		job.Account = account
	}
	return &job, nil
}

// Save writes the job to disk, stamping UpdatedAt.
func (s *Store) Save(account string, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(account, job)
}

func (s *Store) saveLocked(account string, job *Job) error {
	job.UpdatedAt = s.now()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path(account), data, 0o644)
}

// Mark records the outcome of one activation attempt and recomputes the
// completed count.
func (s *Store) Mark(account, key string, status Status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.loadLocked(account)
	if err != nil {
		return err
	}
	job.Records[key] = RecordState{
		Status:    status,
		Message:   message,
		URL:       job.Records[key].URL,
		UpdatedAt: s.now(),
	}
	job.recomputeCompleted()
	return s.saveLocked(account, job)
}

// Reset deletes the account's state file, discarding all progress.
func (s *Store) Reset(account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path(account))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("activation state reset", "account", account)
	return nil
}
