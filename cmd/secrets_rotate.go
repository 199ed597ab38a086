package cmd

import (
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/spf13/cobra"
)

var secretsRotateCmd = &cobra.Command{
	Use:   "rotate <name>",
	Short: "Rotate a secret",
	Long: "Replace one secret with a freshly generated value. The dependent\n" +
		"services keep using the old value until they are restarted.",
	Args: cobra.ExactArgs(1),
	Run:  runSecretsRotate,
}

func runSecretsRotate(cmd *cobra.Command, args []string) {
	name := args[0]

	known := false
	for _, n := range secrets.Names {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		fatal("unknown secret %q (valid: %s)", name, strings.Join(secrets.Names, ", "))
	}

	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	if !env.confirmer.Confirm(fmt.Sprintf("rotate %s? dependent services must be restarted afterwards", name), false) {
		fmt.Println(dimStyle.Render("  aborted"))
		return
	}

	store := secrets.NewStore(env.cfg.SecretsDir)
	if err := store.Rotate(name); err != nil {
		fatal("failed to rotate %s: %v", name, err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] rotated %s", name)))
	fmt.Println()
	fmt.Println(dimStyle.Render("  restart the stack to pick up the new value: docker compose up -d"))
	fmt.Println()
}

func init() {
	secretsCmd.AddCommand(secretsRotateCmd)
}
