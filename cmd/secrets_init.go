package cmd

import (
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/spf13/cobra"
)

var secretsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the secrets store",
	Long: "Create the secrets directory and generate any missing secret files.\n" +
		"Existing secrets are only regenerated after confirmation.",
	Args: cobra.NoArgs,
	Run:  runSecretsInit,
}

func runSecretsInit(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	store := secrets.NewStore(env.cfg.SecretsDir)

	fmt.Println(titleStyle.Render("==> initializing secrets store"))
	fmt.Println()
	fmt.Printf("    %s %s\n", dimStyle.Render("directory:"), valueStyle.Render(store.Dir()))
	fmt.Printf("    %s %s\n", dimStyle.Render("secrets:"), strings.Join(secrets.Names, ", "))
	fmt.Println()

	if err := store.Init(env.confirmer); err != nil {
		fatal("failed to initialize secrets: %v", err)
	}

	fmt.Println(successStyle.Render("  [done] secrets store ready"))
	fmt.Println()
	fmt.Println(dimStyle.Render("  secret files are mode 0600 inside a 0700 directory"))
	fmt.Println()
}

func init() {
	secretsCmd.AddCommand(secretsInitCmd)
}
