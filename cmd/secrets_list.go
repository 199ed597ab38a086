package cmd

import (
	"fmt"

	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/spf13/cobra"
)

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List secrets",
	Long:  "List the secret files present in the store. Values are never printed.",
	Args:  cobra.NoArgs,
	Run:   runSecretsList,
}

func runSecretsList(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	store := secrets.NewStore(env.cfg.SecretsDir)
	names, err := store.List()
	if err != nil {
		fatal("failed to list secrets: %v", err)
	}

	fmt.Println(titleStyle.Render("==> secrets"))
	fmt.Println()

	if len(names) == 0 {
		fmt.Println(dimStyle.Render("  no secrets found"))
		fmt.Println()
		fmt.Println(dimStyle.Render("  create them with: ncdeploy secrets init"))
		fmt.Println()
		return
	}

	for _, name := range names {
		fmt.Printf("    %s\n", valueStyle.Render(name))
	}
	fmt.Println()
}

func init() {
	secretsCmd.AddCommand(secretsListCmd)
}
