package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/activation"
	"github.com/callhubmcp/callhubmcp/internal/config"
)

var statusAccount string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show activation job progress per account",
	RunE:  runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset <account>",
	Short: "Discard an account's saved activation progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func init() {
	statusCmd.Flags().StringVarP(&statusAccount, "account", "a", "", "limit to one account")
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store := activation.NewStore(cfg.Activation.StateDir)

	var names []string
	if statusAccount != "" {
		names = []string{statusAccount}
	} else {
		for _, info := range account.NewResolver().List() {
			names = append(names, info.Name)
		}
	}
	if len(names) == 0 {
		fmt.Println("No CallHub accounts configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSTATE\tCOMPLETED\tTOTAL\tUPDATED")
	for _, name := range names {
		job, err := store.Load(name)
		if err != nil {
			return fmt.Errorf("load state for %s: %w", name, err)
		}
		state := "-"
		updated := "-"
		if len(job.Records) > 0 || job.InProgress {
			state = "done"
			if job.InProgress {
				state = "in progress"
			}
			updated = job.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", name, state, job.CompletedCount, job.TotalCount, updated)
	}
	return w.Flush()
}

func runReset(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store := activation.NewStore(cfg.Activation.StateDir)
	if err := store.Reset(args[0]); err != nil {
		return err
	}
	fmt.Printf("Activation progress reset for %s.\n", args[0])
	return nil
}
