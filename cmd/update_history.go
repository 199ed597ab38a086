package cmd

import (
	"fmt"

	"github.com/ncdeploy/ncdeploy/internal/update"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/spf13/cobra"
)

var updateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past update runs",
	Args:  cobra.NoArgs,
	Run:   runUpdateHistory,
}

func runUpdateHistory(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	runs, err := update.NewRegistry(env.cfg.BackupDir).List()
	if err != nil {
		fatal("failed to read update history: %v", err)
	}

	fmt.Println(titleStyle.Render("==> update history"))
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println(dimStyle.Render("  no update runs recorded"))
		fmt.Println()
		return
	}

	for _, run := range runs {
		fmt.Printf("  %s %s\n", valueStyle.Render(run.ID),
			dimStyle.Render(run.StartedAt.Format("2006-01-02 15:04:05")))
		for _, s := range run.Services {
			outcome := successStyle.Render(s.Outcome)
			if s.Error != "" {
				outcome = errorStyle.Render(fmt.Sprintf("%s (%s)", s.Outcome, utils.TruncateString(s.Error, 80)))
			}
			fmt.Printf("    %s %s\n", dimStyle.Render(s.Service+":"), outcome)
		}
		fmt.Println()
	}
}

func init() {
	updateCmd.AddCommand(updateHistoryCmd)
}
