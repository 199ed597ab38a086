package cmd

import (
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/config"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/cobra"
)

var backupListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List backups",
	Long:  "List recorded backups, optionally filtered by category",
	Args:  cobra.MaximumNArgs(1),
	Run:   runBackupList,
}

func runBackupList(cmd *cobra.Command, args []string) {
	category := ""
	if len(args) == 1 {
		category = args[0]
		if !config.ValidCategory(category) {
			fatal("unknown backup category %q (valid: %s)", category, strings.Join(config.Categories, ", "))
		}
	}

	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	doBackupList(env, category)
}

func doBackupList(env *appEnv, category string) {
	manager, client, err := buildBackupManager(env)
	if err != nil {
		fatal("failed to initialize backup manager: %v", err)
	}
	defer client.Close()

	artifacts, err := manager.List(category)
	if err != nil {
		fatal("failed to list backups: %v", err)
	}

	fmt.Println(titleStyle.Render("==> backups"))
	fmt.Println()

	if len(artifacts) == 0 {
		fmt.Println(dimStyle.Render("  no backups recorded"))
		fmt.Println()
		fmt.Println(dimStyle.Render("  create one with: ncdeploy backup create"))
		fmt.Println()
		return
	}

	for _, a := range artifacts {
		status := successStyle.Render(a.Status)
		if a.Status != models.StatusCompleted {
			status = errorStyle.Render(a.Status)
		}
		fmt.Printf("  %s %s\n", valueStyle.Render(a.ID), status)
		fmt.Printf("    %s %s\n", dimStyle.Render("category:"), a.Category)
		fmt.Printf("    %s %s\n", dimStyle.Render("created:"), a.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Printf("    %s %s (%s)\n", dimStyle.Render("file:"), a.FilePath, renderEncrypted(a.Encrypted))
		fmt.Printf("    %s %s\n", dimStyle.Render("size:"), utils.FormatBytes(a.SizeBytes))
		fmt.Println()
	}
}

func init() {
	backupCmd.AddCommand(backupListCmd)
}
