package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mickamy/gopa"
)

type Order struct {
	ID         int64   `db:"id,id,generated=identity"`
	CustomerID string  `db:"customer_id,notnull,length=36"`
	Amount     float64 `db:"amount"`
	Status     string  `db:"status,length=16"`
}

var (
	cfgFile string
	dsn     string
	dialect string
	showSQL bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "demo",
		Short:         "Persist, merge and remove an order in one unit of work",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gopa.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dsn") || cfg.DSN == "" {
				cfg.DSN = dsn
			}
			if cmd.Flags().Changed("dialect") {
				cfg.Dialect = dialect
			}
			if cmd.Flags().Changed("show-sql") {
				cfg.ShowSQL = showSQL
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().StringVar(&dsn, "dsn", "file:demo.db", "data source name")
	cmd.Flags().StringVar(&dialect, "dialect", "sqlite", "mysql, postgres or sqlite")
	cmd.Flags().BoolVar(&showSQL, "show-sql", true, "log every statement")
	return cmd
}

func run(ctx context.Context, cfg gopa.Config) error {
	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg.Logger = logger

	db, err := gopa.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx, Order{}); err != nil {
		return err
	}

	ctx = gopa.WithTraceID(ctx, uuid.NewString())

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	kept, removed, err := unitOfWork(ctx, db.Factory().NewEntityManager(tx))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// a fresh session reads what the transaction left behind
	em := db.EntityManager()
	order, err := gopa.Find[Order](ctx, em, kept)
	if err != nil {
		return err
	}
	logger.Info("order", zap.Int64("id", order.ID), zap.String("status", order.Status), zap.Float64("amount", order.Amount))

	if _, err := gopa.Find[Order](ctx, em, removed); !errors.Is(err, gopa.ErrNotFound) {
		return fmt.Errorf("expected order %d to be deleted, got %v", removed, err)
	}
	return nil
}

// unitOfWork returns the ids of the order it kept and the order it removed.
func unitOfWork(ctx context.Context, em *gopa.EntityManager) (int64, int64, error) {
	first := &Order{CustomerID: uuid.NewString(), Amount: 1200, Status: "new"}
	second := &Order{CustomerID: uuid.NewString(), Amount: 80, Status: "new"}
	if err := em.Persist(ctx, first); err != nil {
		return 0, 0, fmt.Errorf("persist: %w", err)
	}
	if err := em.Persist(ctx, second); err != nil {
		return 0, 0, fmt.Errorf("persist: %w", err)
	}

	first.Status = "paid"
	first.Amount = 1500
	if err := em.Merge(first); err != nil {
		return 0, 0, fmt.Errorf("merge: %w", err)
	}
	if err := em.Remove(second); err != nil {
		return 0, 0, fmt.Errorf("remove: %w", err)
	}
	if err := em.Flush(ctx); err != nil {
		return 0, 0, err
	}
	return first.ID, second.ID, nil
}
