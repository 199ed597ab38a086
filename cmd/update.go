package cmd

import (
	"fmt"
	"time"

	"github.com/lucsky/cuid"
	"github.com/ncdeploy/ncdeploy/internal/docker"
	"github.com/ncdeploy/ncdeploy/internal/update"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/cobra"
)

var (
	updateForce      bool
	updateNoRollback bool
)

var updateCmd = &cobra.Command{
	Use:   "update [service]",
	Short: "Update stack services",
	Long: "Pull new images and replace containers one service at a time, in\n" +
		"dependency order. Each replaced container is snapshotted first and\n" +
		"rolled back automatically when the new one fails its health check.\n" +
		"Updates every service when called with \"all\" or no argument.",
	Args: cobra.MaximumNArgs(1),
	Run:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) {
	service := "all"
	if len(args) == 1 {
		service = args[0]
	}

	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	client, err := docker.NewClient()
	if err != nil {
		fatal("failed to connect to docker: %v", err)
	}
	defer client.Close()

	updater := buildUpdater(env, client)
	updater.Force = updateForce
	updater.RollbackEnabled = !updateNoRollback

	registry := update.NewRegistry(env.cfg.BackupDir)

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> updating %s", service)))
	fmt.Println()
	if updateNoRollback {
		fmt.Println(warnStyle.Render("  [warn] automatic rollback is disabled for this run"))
		fmt.Println()
	}

	var run models.UpdateRun
	err = withOpLock(env, func() error {
		ctx := client.GetContext()
		if service == "all" {
			var runErr error
			run, runErr = updater.UpdateAll(ctx)
			return runErr
		}

		run = models.UpdateRun{ID: cuid.New(), StartedAt: time.Now()}
		res := updater.UpdateService(ctx, service)
		record := models.ServiceUpdate{
			Service:    res.Service,
			OldImageID: res.OldImageID,
			NewImageID: res.NewImageID,
			Snapshot:   res.Snapshot,
			Outcome:    res.Final.String(),
		}
		if res.Err != nil {
			record.Error = res.Err.Error()
		}
		run.Services = append(run.Services, record)
		run.FinishedAt = time.Now()
		return res.Err
	})

	if rerr := registry.Append(run); rerr != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  [warn] could not record update run: %v", rerr)))
	}

	for _, s := range run.Services {
		outcome := successStyle.Render(s.Outcome)
		if s.Error != "" {
			outcome = errorStyle.Render(s.Outcome)
		}
		fmt.Printf("    %s %s\n", dimStyle.Render(s.Service+":"), outcome)
		if s.OldImageID != "" && s.NewImageID != "" && s.OldImageID != s.NewImageID {
			fmt.Printf("      %s %s -> %s\n", dimStyle.Render("image:"),
				shortID(s.OldImageID), shortID(s.NewImageID))
		}
	}
	fmt.Println()

	if err != nil {
		fatal("update failed: %v", err)
	}

	fmt.Println(successStyle.Render("  [done] update completed successfully"))
	fmt.Println()
}

func shortID(id string) string {
	const prefix = "sha256:"
	if len(id) > len(prefix)+12 && id[:len(prefix)] == prefix {
		return id[len(prefix) : len(prefix)+12]
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "replace containers even when the image is unchanged")
	updateCmd.Flags().BoolVar(&updateNoRollback, "no-rollback", false, "do not roll back to the snapshot on failure")
	rootCmd.AddCommand(updateCmd)
}
