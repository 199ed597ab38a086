package cmd

import (
	"errors"
	"fmt"

	"github.com/ncdeploy/ncdeploy/internal/restore"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [category] [timestamp]",
	Short: "Restore from a backup",
	Long: "Restore one category (database, data, config, volumes) from a backup,\n" +
		"or a full restore with \"full\". Without arguments an interactive menu is\n" +
		"shown. The timestamp selects a specific backup; the newest is offered\n" +
		"when it is omitted.",
	Args: cobra.MaximumNArgs(2),
	Run:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	category := ""
	timestamp := ""
	if len(args) >= 1 {
		category = args[0]
	}
	if len(args) == 2 {
		timestamp = args[1]
	}

	if category == "" {
		options := []string{
			"full restore (database, data, config)",
			"database",
			"data",
			"config",
			"volume",
		}
		choice, serr := env.confirmer.Select("what would you like to restore?", options)
		if serr != nil {
			fatal("%v", serr)
		}
		category = []string{"full", "database", "data", "config", "volumes"}[choice]
	}

	manager, client, err := buildRestoreManager(env)
	if err != nil {
		fatal("failed to initialize restore manager: %v", err)
	}
	defer client.Close()

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> restoring %s", category)))
	fmt.Println()

	err = withOpLock(env, func() error {
		ctx := client.GetContext()
		switch category {
		case "full":
			return manager.RestoreFull(ctx)
		case "database":
			return manager.RestoreDatabase(ctx, timestamp)
		case "data":
			return manager.RestoreData(ctx, timestamp)
		case "config":
			return manager.RestoreConfig(ctx, timestamp)
		case "volumes", "volume":
			return manager.RestoreVolume(ctx, timestamp)
		default:
			return fmt.Errorf("unknown restore category %q (valid: database, data, config, volumes, full)", category)
		}
	})

	fmt.Println()
	if err != nil {
		if errors.Is(err, restore.ErrRecoveryFailed) {
			fmt.Println(errorStyle.Render("  [error] restore failed AND recovery could not bring services back"))
			fmt.Println(warnStyle.Render("  the deployment may be in a degraded state, inspect it manually"))
		}
		fatal("restore failed: %v", err)
	}

	fmt.Println(successStyle.Render("  [done] restore completed successfully"))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
