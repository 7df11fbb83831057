package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inventory-management-service/config"
	"inventory-management-service/internal/infra"
	"inventory-management-service/internal/migrations"
	"inventory-management-service/internal/repository"
	"inventory-management-service/internal/usecase"
)

var migrateYes bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long:  "Manage database migrations for the inventory management service",
}

// newMigrationService はDBに直接接続してMigrationServiceを構築する。
// 返されるクローズ関数は呼び出し側がdeferで実行する。
func newMigrationService(ctx context.Context) (*usecase.MigrationService, func(), error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	client, db, err := infra.NewMongoDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() {
		_ = client.Disconnect(ctx)
	}

	registry := migrations.NewRegistry(db)
	migrationRepo := repository.NewMigrationRepository(db)
	runner := infra.NewTxRunner(client)
	return usecase.NewMigrationService(registry, migrationRepo, runner), cleanup, nil
}

// confirmPlan は実行予定のマイグレーション一覧を表示し、実行の確認を取る。
func confirmPlan(direction string, names []string) (bool, error) {
	fmt.Printf("The following migrations will be applied (%s):\n", direction)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	if migrateYes {
		return true, nil
	}

	fmt.Print("Continue? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List migrations and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, cleanup, err := newMigrationService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		infos, err := service.ListAvailable(ctx)
		if err != nil {
			return fmt.Errorf("failed to list migrations: %w", err)
		}

		// テーブル形式で出力
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tDESCRIPTION")
		fmt.Fprintln(w, "----\t------\t-----------")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Status, info.Description)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, cleanup, err := newMigrationService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		last, err := service.GetLastApplied(ctx)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		if last == nil {
			fmt.Println("No migrations have been applied.")
		} else {
			fmt.Printf("Last applied migration: %s\n", *last)
		}
		return nil
	},
}

var migrateForwardCmd = &cobra.Command{
	Use:   "forward <name|latest>",
	Short: "Apply forward migrations up to and including the named migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, cleanup, err := newMigrationService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		plan, err := service.LoadForwardMigrationsTo(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to plan forward migrations: %w", err)
		}

		ok, err := confirmPlan("forward", plan.Names)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}

		if err := service.ExecuteForward(ctx, plan); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Applied %d migration(s) successfully.\n", len(plan.Names))
		return nil
	},
}

var migrateBackwardCmd = &cobra.Command{
	Use:   "backward <name>",
	Short: "Revert migrations back to (but not including) the named migration",
	Long: "Revert applied migrations in reverse order until the named migration is the last " +
		"applied one. Use --all to revert every applied migration.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		if target == "" && !all {
			return fmt.Errorf("a migration name is required (or pass --all to revert everything)")
		}
		if target != "" && all {
			return fmt.Errorf("--all cannot be combined with a migration name")
		}

		service, cleanup, err := newMigrationService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		plan, err := service.LoadBackwardMigrationsTo(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to plan backward migrations: %w", err)
		}

		ok, err := confirmPlan("backward", plan.Names)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}

		if err := service.ExecuteBackward(ctx, plan); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Reverted %d migration(s) successfully.\n", len(plan.Names))
		return nil
	},
}

var migrateSetCursorCmd = &cobra.Command{
	Use:   "set-cursor <name|none>",
	Short: "Force the migration cursor to the named migration",
	Long: "Overwrite the last-applied migration marker without running any migration. " +
		"Use \"none\" to reset the cursor to the unapplied state. This is an operator " +
		"escape hatch for repairing a cursor left inconsistent by skipped releases.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, cleanup, err := newMigrationService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var name *string
		if args[0] != "none" {
			name = &args[0]
		}
		if err := service.SetLastApplied(ctx, name); err != nil {
			return fmt.Errorf("failed to set migration cursor: %w", err)
		}

		if name == nil {
			fmt.Println("Migration cursor reset to unapplied state.")
		} else {
			fmt.Printf("Migration cursor set to %s.\n", *name)
		}
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolVar(&migrateYes, "yes", false, "Skip the confirmation prompt")
	migrateBackwardCmd.Flags().Bool("all", false, "Revert every applied migration")
	migrateCmd.AddCommand(migrateListCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateForwardCmd)
	migrateCmd.AddCommand(migrateBackwardCmd)
	migrateCmd.AddCommand(migrateSetCursorCmd)
}
