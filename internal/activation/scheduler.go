package activation

import (
	"context"
	"log/slog"
	"os"
	"sort"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/callhubmcp/callhubmcp/internal/account"
)

// Scheduler re-runs unfinished activation jobs on a cron schedule. A run
// interrupted mid-way (crash, ctrl-C, browser death) leaves its job
// marked in-progress; the scheduler picks those up and retries the
// records that never succeeded, reading the password from the configured
// environment variable.
type Scheduler struct {
	store       *Store
	runner      *Runner
	resolver    *account.Resolver
	schedule    string
	passwordEnv string

	cron *robfigcron.Cron
}

// NewScheduler wires a scheduler. An empty schedule disables it.
func NewScheduler(store *Store, runner *Runner, resolver *account.Resolver, schedule, passwordEnv string) *Scheduler {
	return &Scheduler{
		store:       store,
		runner:      runner,
		resolver:    resolver,
		schedule:    schedule,
		passwordEnv: passwordEnv,
		cron:        robfigcron.New(),
	}
}

// Start arms the cron schedule and blocks until ctx is cancelled.
// Returns immediately when no schedule is configured.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.runOnce(ctx) }); err != nil {
		return err
	}
	slog.Info("activation scheduler armed", "schedule", s.schedule)
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}

// runOnce retries every account that has an unfinished job on disk.
func (s *Scheduler) runOnce(ctx context.Context) {
	password := os.Getenv(s.passwordEnv)
	if len(password) < MinPasswordLength {
		slog.Warn("activation scheduler: password env unset or too short, skipping run",
			"env", s.passwordEnv)
		return
	}

	for _, info := range s.resolver.List() {
		job, err := s.store.Load(info.Name)
		if err != nil {
			slog.Warn("activation scheduler: load failed", "account", info.Name, "err", err)
			continue
		}
		if !job.InProgress {
			continue
		}

		records := remainingRecords(job)
		if len(records) == 0 {
			job.InProgress = false
			if err := s.store.Save(info.Name, job); err != nil {
				slog.Warn("activation scheduler: save failed", "account", info.Name, "err", err)
			}
			continue
		}

		slog.Info("activation scheduler: retrying unfinished job",
			"account", info.Name, "remaining", len(records))
		if _, err := s.runner.RunBatch(ctx, info.Name, records, password, job.BatchSize); err != nil {
			slog.Warn("activation scheduler: retry failed", "account", info.Name, "err", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// remainingRecords rebuilds the record list for entries that never
// succeeded, from the state the last run checkpointed.
func remainingRecords(job *Job) []Record {
	var records []Record
	for key, rs := range job.Records {
		if rs.Status == StatusSuccess || rs.URL == "" {
			continue
		}
		rec := Record{URL: rs.URL}
		if key != rs.URL {
			rec.Username = key
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key() < records[j].Key() })
	return records
}
