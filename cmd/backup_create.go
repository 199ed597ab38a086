package cmd

import (
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/config"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/cobra"
)

var backupCreateCmd = &cobra.Command{
	Use:   "create [category]",
	Short: "Create a backup",
	Long: "Create a backup of one category (database, data, config, volumes, logs)\n" +
		"or a full backup of all categories when called with \"full\" or no argument",
	Args: cobra.MaximumNArgs(1),
	Run:  runBackupCreate,
}

func runBackupCreate(cmd *cobra.Command, args []string) {
	category := "full"
	if len(args) == 1 {
		category = args[0]
	}

	if category != "full" && !config.ValidCategory(category) {
		fatal("unknown backup category %q (valid: %s, full)", category, strings.Join(config.Categories, ", "))
	}

	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	doBackupCreate(env, category)
}

func doBackupCreate(env *appEnv, category string) {
	manager, client, err := buildBackupManager(env)
	if err != nil {
		fatal("failed to initialize backup manager: %v", err)
	}
	defer client.Close()

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> creating %s backup", category)))
	fmt.Println()

	var artifacts []models.Artifact
	err = withOpLock(env, func() error {
		ctx := client.GetContext()
		var runErr error
		if category == "full" {
			artifacts, runErr = manager.CreateFull(ctx)
		} else {
			fmt.Println(progressStyle.Render(fmt.Sprintf("  --> backing up %s...", category)))
			artifacts, runErr = manager.CreateCategory(ctx, category)
		}
		return runErr
	})

	for _, a := range artifacts {
		if a.Status != models.StatusCompleted {
			continue
		}
		fmt.Printf("    %s %s (%s, %s)\n",
			dimStyle.Render(a.Category+":"),
			valueStyle.Render(a.FilePath),
			utils.FormatBytes(a.SizeBytes),
			renderEncrypted(a.Encrypted))
	}
	fmt.Println()

	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("  [error] backup failed: %v", err)))
		fatal("backup did not complete")
	}

	fmt.Println(successStyle.Render("  [done] backup created successfully"))
	fmt.Println()
	fmt.Println(dimStyle.Render("  restore with: ncdeploy restore <category>"))
	fmt.Println()
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
}
