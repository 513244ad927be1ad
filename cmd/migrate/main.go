package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"pollbox/config"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	seedOwner  string
	seedName   string
	seedVoters int
	resetForce bool
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Pollbox database tool",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update every table and index",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, log *logger.Logger) error {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info(cmd.Context(), "migrations applied")
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which tables exist",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, _ *logger.Logger) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tEXISTS")
		for _, st := range database.Status(db) {
			fmt.Fprintf(w, "%s\t%t\n", st.Table, st.Exists)
		}
		return w.Flush()
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every table and migrate again (destroys data)",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, log *logger.Logger) error {
		if !resetForce {
			return fmt.Errorf("reset drops all data; pass --force to confirm")
		}
		if err := database.Reset(db); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate after reset: %w", err)
		}
		log.Info(cmd.Context(), "database reset")
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo owner, polls and votes",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, log *logger.Logger) error {
		cfg := database.DefaultSeedConfig()
		if seedOwner != "" {
			id, err := uuid.Parse(seedOwner)
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			cfg.OwnerID = id
		}
		if seedName != "" {
			cfg.OwnerName = seedName
		}
		cfg.Voters = seedVoters

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		res, err := database.Seed(cmd.Context(), db, cfg, log)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "owner %s: %d polls, %d votes\n", res.Owner.ID, len(res.Polls), res.Votes)
		return nil
	}),
}

// withDB loads config, opens the database and closes it after fn returns.
func withDB(fn func(cmd *cobra.Command, db *gorm.DB, log *logger.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := config.LoadConfig()
		log := logger.New(logger.DevelopmentMode)
		defer log.Sync()

		db, err := database.Connect(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		ctx := context.WithValue(cmd.Context(), logger.RequestIdKey, cmd.Name())
		cmd.SetContext(ctx)
		if err := fn(cmd, db, log); err != nil {
			log.Error(ctx, "command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

func init() {
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "Owner user id (defaults to the demo owner)")
	seedCmd.Flags().StringVar(&seedName, "name", "", "Owner display name")
	seedCmd.Flags().IntVar(&seedVoters, "voters", 5, "Number of demo voters")
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Confirm dropping all tables")

	rootCmd.AddCommand(upCmd, statusCmd, resetCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
