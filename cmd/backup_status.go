package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncdeploy/ncdeploy/internal/backup"
	"github.com/ncdeploy/ncdeploy/internal/config"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/cobra"
)

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backup status per category",
	Long:  "Summarize the backup directory: newest backup, count and total size per category",
	Args:  cobra.NoArgs,
	Run:   runBackupStatus,
}

type categorySummary struct {
	count     int
	bytes     int64
	newest    string
	encrypted int
}

func runBackupStatus(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	manager, client, err := buildBackupManager(env)
	if err != nil {
		fatal("failed to initialize backup manager: %v", err)
	}
	defer client.Close()

	artifacts, err := manager.List("")
	if err != nil {
		fatal("failed to read backup registry: %v", err)
	}

	summaries := make(map[string]*categorySummary)
	for _, a := range artifacts {
		if a.Status != models.StatusCompleted {
			continue
		}
		s := summaries[a.Category]
		if s == nil {
			s = &categorySummary{}
			summaries[a.Category] = s
		}
		s.count++
		s.bytes += a.SizeBytes
		if a.Encrypted {
			s.encrypted++
		}
		if s.newest == "" || a.Timestamp.Format(backup.TimestampLayout) > s.newest {
			s.newest = a.Timestamp.Format(backup.TimestampLayout)
		}
	}

	fmt.Println(titleStyle.Render("==> backup status"))
	fmt.Println()
	fmt.Printf("    %s %s\n", dimStyle.Render("directory:"), valueStyle.Render(env.cfg.BackupDir))
	fmt.Println()

	var total int64
	for _, category := range config.Categories {
		s := summaries[category]
		if s == nil {
			fmt.Printf("    %s %s\n", dimStyle.Render(category+":"), dimStyle.Render("no backups"))
			continue
		}
		total += s.bytes
		fmt.Printf("    %s %d backup(s), %s, %d encrypted, newest %s\n",
			dimStyle.Render(category+":"), s.count, utils.FormatBytes(s.bytes), s.encrypted, s.newest)
	}
	fmt.Println()

	// On-disk total can differ from the registry when files were pruned or
	// dropped manually.
	var onDisk int64
	entries, derr := os.ReadDir(env.cfg.BackupDir)
	if derr == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, perr := backup.ParseArtifactName(e.Name()); perr != nil {
				continue
			}
			if info, ierr := os.Stat(filepath.Join(env.cfg.BackupDir, e.Name())); ierr == nil {
				onDisk += info.Size()
			}
		}
	}

	fmt.Printf("    %s %s\n", dimStyle.Render("registry total:"), valueStyle.Render(utils.FormatBytes(total)))
	fmt.Printf("    %s %s\n", dimStyle.Render("on disk:"), valueStyle.Render(utils.FormatBytes(onDisk)))
	fmt.Println()
}

func init() {
	backupCmd.AddCommand(backupStatusCmd)
}
