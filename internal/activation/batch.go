package activation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/callhubmcp/callhubmcp/internal/progress"
)

// DefaultBatchSize balances checkpoint frequency against per-batch
// overhead.
const DefaultBatchSize = 10

// MinPasswordLength is CallHub's password policy on the set-password form.
const MinPasswordLength = 8

// defaultBatchPause spaces batches out so the activation pages are not
// hammered back to back.
const defaultBatchPause = 500 * time.Millisecond

// Detail is the outcome of one attempted activation.
type Detail struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// BatchResult summarizes a whole activation run. Successful includes
// records completed on earlier runs and skipped this time.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	LogFile    string   `json:"logFile,omitempty"`
	Details    []Detail `json:"details"`
}

// Notifier is told when a run finishes. See internal/notify.
type Notifier interface {
	ActivationComplete(ctx context.Context, account string, result BatchResult) error
}

// Runner activates agents in checkpointed batches so an interrupted run
// can resume where it stopped.
type Runner struct {
	store    *Store
	driver   PageDriver
	bc       *progress.Broadcaster
	notifier Notifier
	logDir   string

	pause time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner wires a runner. bc and notifier may be nil.
func NewRunner(store *Store, driver PageDriver, bc *progress.Broadcaster, notifier Notifier, logDir string) *Runner {
	return &Runner{
		store:    store,
		driver:   driver,
		bc:       bc,
		notifier: notifier,
		logDir:   logDir,
		pause:    defaultBatchPause,
		sleep:    sleepCtx,
	}
}

// RunBatch activates every record not already marked successful for the
// account, in sequential batches of batchSize. Progress is checkpointed
// to the store after each batch. Individual failures are recorded and
// never abort the run.
func (r *Runner) RunBatch(ctx context.Context, account string, records []Record, password string, batchSize int) (BatchResult, error) {
	if len(password) < MinPasswordLength {
		return BatchResult{}, &ValidationError{
			Reason: fmt.Sprintf("password must be at least %d characters long", MinPasswordLength),
		}
	}
	if len(records) == 0 {
		return BatchResult{}, &ValidationError{Reason: "no activation records provided"}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	job, err := r.store.Load(account)
	if err != nil {
		return BatchResult{}, err
	}

	var pending []Record
	for _, rec := range records {
		if job.Succeeded(rec.Key()) {
			continue
		}
		pending = append(pending, rec)
	}
	skipped := len(records) - len(pending)

	log, err := OpenBatchLog(r.logDir, account)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{
		Total:      len(records),
		Successful: skipped,
		Skipped:    skipped,
		LogFile:    log.Path(),
	}

	job.TotalCount = len(records)
	job.BatchSize = batchSize
	job.LogFilePath = log.Path()
	job.InProgress = true
	for _, rec := range pending {
		if _, ok := job.Records[rec.Key()]; !ok {
			job.Records[rec.Key()] = RecordState{Status: StatusPending, URL: rec.URL}
		}
	}
	job.recomputeCompleted()
	if err := r.store.Save(account, job); err != nil {
		return BatchResult{}, err
	}

	totalBatches := (len(pending) + batchSize - 1) / batchSize
	if skipped > 0 {
		msg := fmt.Sprintf("Resuming activation: %d/%d agents already activated", skipped, len(records))
		slog.Info("activation resume", "account", account, "completed", skipped, "total", len(records))
		log.Printf("%s", msg)
		r.publish(progress.Update{
			Type: "resume", Account: account, Message: msg,
			Completed: skipped, Total: len(records),
			Percent: percent(skipped, len(records)),
		})
	}
	startMsg := fmt.Sprintf("Starting activation of %d agents in %d batches", len(pending), totalBatches)
	slog.Info("activation start", "account", account, "pending", len(pending), "batches", totalBatches)
	log.Printf("%s", startMsg)
	r.publish(progress.Update{
		Type: "start", Account: account, Message: startMsg,
		Total: len(records), Completed: skipped, TotalBatches: totalBatches,
	})

	for b := 0; b < totalBatches; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(pending))
		batch := pending[start:end]

		log.Printf("Processing batch %d/%d (%d agents)", b+1, totalBatches, len(batch))
		r.publish(progress.Update{
			Type: "batch_start", Account: account,
			Batch: b + 1, TotalBatches: totalBatches,
			Message: fmt.Sprintf("Processing batch %d/%d (%d agents)", b+1, totalBatches, len(batch)),
		})

		batchOK, batchFail := 0, 0
		for _, rec := range batch {
			if ctx.Err() != nil {
				r.checkpoint(account, job, log)
				return result, ctx.Err()
			}

			detail := Detail{Username: rec.Username, Email: rec.Email}
			var actErr error
			if rec.URL == "" {
				actErr = &ValidationError{Reason: "missing activation URL"}
			} else {
				actErr = r.driver.Activate(ctx, rec.URL, password)
			}

			if actErr == nil {
				detail.Success = true
				detail.Message = "Successfully activated"
				batchOK++
				result.Successful++
				job.Records[rec.Key()] = RecordState{Status: StatusSuccess, URL: rec.URL, UpdatedAt: time.Now()}
			} else {
				detail.Message = actErr.Error()
				batchFail++
				result.Failed++
				job.Records[rec.Key()] = RecordState{Status: StatusFailed, Message: actErr.Error(), URL: rec.URL, UpdatedAt: time.Now()}
			}
			result.Details = append(result.Details, detail)
			slog.Debug("activation attempt", "account", account, "username", rec.Username, "success", detail.Success)
		}

		r.checkpoint(account, job, log)

		completeMsg := fmt.Sprintf(
			"Completed batch %d/%d: %d successful, %d failed. Total progress: %d/%d (%.1f%%)",
			b+1, totalBatches, batchOK, batchFail,
			job.CompletedCount, len(records), percent(job.CompletedCount, len(records)),
		)
		slog.Info("activation batch complete",
			"account", account, "batch", b+1, "batches", totalBatches,
			"successful", batchOK, "failed", batchFail)
		log.Printf("%s", completeMsg)
		r.publish(progress.Update{
			Type: "batch_complete", Account: account,
			Batch: b + 1, TotalBatches: totalBatches,
			Successful: result.Successful, Failed: result.Failed,
			Completed: job.CompletedCount, Total: len(records),
			Percent: percent(job.CompletedCount, len(records)),
			Message: completeMsg,
		})

		if b+1 < totalBatches {
			if err := r.sleep(ctx, r.pause); err != nil {
				return result, err
			}
		}
	}

	job.InProgress = false
	if err := r.store.Save(account, job); err != nil {
		slog.Warn("activation: final state save failed", "account", account, "err", err)
	}

	finalMsg := fmt.Sprintf("Activation complete! %d/%d agents activated successfully (%.1f%%)",
		result.Successful, result.Total, percent(result.Successful, result.Total))
	slog.Info("activation complete",
		"account", account, "successful", result.Successful, "failed", result.Failed, "total", result.Total)
	log.Printf("%s", finalMsg)
	r.publish(progress.Update{
		Type: "complete", Account: account, Message: finalMsg,
		Successful: result.Successful, Failed: result.Failed,
		Completed: result.Successful + result.Failed, Total: result.Total,
		Percent: percent(result.Successful, result.Total),
	})

	if r.notifier != nil {
		if err := r.notifier.ActivationComplete(ctx, account, result); err != nil {
			slog.Warn("activation: completion notification failed", "account", account, "err", err)
		}
	}
	return result, nil
}

func (r *Runner) checkpoint(account string, job *Job, log *BatchLog) {
	job.recomputeCompleted()
	if err := r.store.Save(account, job); err != nil {
		slog.Warn("activation: checkpoint save failed", "account", account, "err", err)
		log.Printf("Error saving state: %v", err)
	}
}

func (r *Runner) publish(u progress.Update) {
	if r.bc != nil {
		r.bc.Publish(u)
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
