package cmd

import (
	"fmt"
	"os"

	"github.com/ncdeploy/ncdeploy/internal/crypto"
	"github.com/ncdeploy/ncdeploy/internal/docker"
	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the deployment environment",
	Long:  "Verify that docker, compose, gpg, directories and secrets are usable",
	Args:  cobra.NoArgs,
	Run:   runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	fmt.Println(titleStyle.Render("==> checking environment"))
	fmt.Println()

	failures := 0
	check := func(name string, err error) {
		if err != nil {
			failures++
			fmt.Printf("    %s %s\n", errorStyle.Render("[fail]"), name)
			fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
			return
		}
		fmt.Printf("    %s %s\n", successStyle.Render("[ok]"), name)
	}

	client, err := docker.NewClient()
	check("docker daemon reachable", err)
	if err == nil {
		defer client.Close()
		ctx := client.GetContext()
		check("docker daemon responds to ping", client.Ping(ctx))
		check("docker compose plugin available", docker.ComposeAvailable(ctx))
	}

	check("compose file exists", statFile(env.cfg.ComposeFile))
	check("data directory exists", statDir(env.cfg.DataDir))
	check("backup directory exists", statDir(env.cfg.BackupDir))
	check("secrets directory exists", statDir(env.cfg.SecretsDir))

	store := secrets.NewStore(env.cfg.SecretsDir)
	check("secrets permissions (0700 dir, 0600 files)", store.EnsurePerms())

	if env.cfg.GPGEncryption {
		var gpgErr error
		if !crypto.Available() {
			gpgErr = fmt.Errorf("gpg binary not found in PATH")
		}
		check("gpg available (encryption is enabled)", gpgErr)
		fmt.Printf("      %s %v\n", dimStyle.Render("recipients:"), env.cfg.GPGRecipients)
	} else {
		fmt.Printf("    %s %s\n", dimStyle.Render("[skip]"), "gpg (encryption is disabled)")
	}

	fmt.Println()
	if failures > 0 {
		fatal("%d check(s) failed", failures)
	}

	fmt.Println(successStyle.Render("  [done] all checks passed"))
	fmt.Println()
}

func statFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file", path)
	}
	return nil
}

func statDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
