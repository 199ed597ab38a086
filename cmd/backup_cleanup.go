package cmd

import (
	"fmt"

	"github.com/ncdeploy/ncdeploy/internal/backup"
	"github.com/spf13/cobra"
)

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired backups",
	Long:  "Delete backups older than their category's configured retention window",
	Args:  cobra.NoArgs,
	Run:   runBackupCleanup,
}

func runBackupCleanup(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	doBackupCleanup(env)
}

func doBackupCleanup(env *appEnv) {
	manager, client, err := buildBackupManager(env)
	if err != nil {
		fatal("failed to initialize backup manager: %v", err)
	}
	defer client.Close()

	fmt.Println(titleStyle.Render("==> cleaning up old backups"))
	fmt.Println()

	for category, threshold := range backup.RetentionThresholds(env.cfg) {
		fmt.Printf("    %s %s\n", dimStyle.Render(category+":"), fmt.Sprintf("%d days", int(threshold.Hours())/24))
	}
	fmt.Println()

	var deleted []string
	err = withOpLock(env, func() error {
		var runErr error
		deleted, runErr = manager.Cleanup()
		return runErr
	})
	if err != nil {
		fatal("cleanup failed: %v", err)
	}

	if len(deleted) == 0 {
		fmt.Println(dimStyle.Render("  nothing to delete"))
		fmt.Println()
		return
	}

	for _, path := range deleted {
		fmt.Println(progressStyle.Render(fmt.Sprintf("  --> deleted %s", path)))
	}
	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] deleted %d expired backup(s)", len(deleted))))
	fmt.Println()
}

func init() {
	backupCmd.AddCommand(backupCleanupCmd)
}
