package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup management commands",
	Long:  "Create, list, decrypt and prune backups of the Nextcloud stack",
	Run:   runBackupMenu,
}

// runBackupMenu is the fallback when no subcommand is given: offer the
// backup actions interactively.
func runBackupMenu(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	fmt.Println(titleStyle.Render("==> backup"))
	fmt.Println()

	options := []string{
		"full backup (all categories)",
		"database backup",
		"data backup",
		"config backup",
		"volumes backup",
		"logs backup",
		"list backups",
		"clean up old backups",
	}

	choice, err := env.confirmer.Select("what would you like to do?", options)
	if err != nil {
		fatal("%v", err)
	}

	switch choice {
	case 0:
		doBackupCreate(env, "full")
	case 1:
		doBackupCreate(env, "database")
	case 2:
		doBackupCreate(env, "data")
	case 3:
		doBackupCreate(env, "config")
	case 4:
		doBackupCreate(env, "volumes")
	case 5:
		doBackupCreate(env, "logs")
	case 6:
		doBackupList(env, "")
	case 7:
		doBackupCleanup(env)
	}
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
