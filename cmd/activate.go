package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/callhubmcp/callhubmcp/internal/activation"
	"github.com/callhubmcp/callhubmcp/internal/config"
	"github.com/callhubmcp/callhubmcp/internal/container"
)

var (
	activateCSV         string
	activatePasswordEnv string
	activateAccount     string
	activateBatchSize   int
	activateAllAccounts bool
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Run a batch agent-activation job from a CSV of activation URLs",
	RunE:  runActivate,
}

func init() {
	activateCmd.Flags().StringVar(&activateCSV, "csv", "", "path to the activation CSV (required)")
	activateCmd.Flags().StringVar(&activatePasswordEnv, "password-env", "", "environment variable holding the password (defaults to activation.passwordEnv)")
	activateCmd.Flags().StringVarP(&activateAccount, "account", "a", "", "account to activate against")
	activateCmd.Flags().IntVar(&activateBatchSize, "batch-size", 0, "agents per batch (defaults to activation.batchSize)")
	activateCmd.Flags().BoolVar(&activateAllAccounts, "all-accounts", false, "run the job against every configured account")
	_ = activateCmd.MarkFlagRequired("csv")
}

func runActivate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	passwordEnv := activatePasswordEnv
	if passwordEnv == "" {
		passwordEnv = cfg.Activation.PasswordEnv
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		return fmt.Errorf("no password in $%s", passwordEnv)
	}

	records, err := activation.ParseCSVFile(activateCSV)
	if err != nil {
		return fmt.Errorf("parse %s: %w", activateCSV, err)
	}

	batchSize := activateBatchSize
	if batchSize <= 0 {
		batchSize = cfg.Activation.BatchSize
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var accounts []string
	if activateAllAccounts {
		for _, info := range c.Resolver().List() {
			accounts = append(accounts, info.Name)
		}
		if len(accounts) == 0 {
			return fmt.Errorf("no CallHub accounts configured")
		}
	} else {
		acct, err := c.Resolver().Resolve(activateAccount)
		if err != nil {
			return err
		}
		accounts = []string{acct.Name}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range accounts {
		g.Go(func() error {
			result, err := c.Runner().RunBatch(gctx, name, records, password, batchSize)
			if err != nil {
				return fmt.Errorf("account %s: %w", name, err)
			}
			fmt.Printf("%s: %d/%d activated, %d failed (log: %s)\n",
				name, result.Successful, result.Total, result.Failed, result.LogFile)
			return nil
		})
	}
	return g.Wait()
}
