package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create the deployment configuration interactively",
	Long: "Walk through the deployment settings and write the KEY=VALUE\n" +
		"configuration file. Existing files are only overwritten after\n" +
		"confirmation.",
	Args: cobra.NoArgs,
	Run:  runConfigSetup,
}

// setupAnswers collects everything the interactive flow asks before any
// file is written, so aborting halfway leaves no partial config behind.
type setupAnswers struct {
	domain     string
	dbName     string
	dbUser     string
	dataDir    string
	backupDir  string
	secretsDir string
	encryption bool
	recipients string
	types      string
}

func runConfigSetup(cmd *cobra.Command, args []string) {
	if nonInteractive {
		fatal("config setup is interactive, re-run without --non-interactive")
	}

	term := prompt.NewTerminal()

	fmt.Println(titleStyle.Render("==> ncdeploy setup"))
	fmt.Println()
	fmt.Println(subtitleStyle.Render("  answers are written to " + configPath))
	fmt.Println()

	if _, err := os.Stat(configPath); err == nil {
		if !term.Confirm(fmt.Sprintf("%s already exists, overwrite it?", configPath), false) {
			fmt.Println(dimStyle.Render("  aborted"))
			return
		}
	}

	answers, err := askSetup(term)
	if err != nil {
		fatal("%v", err)
	}

	content := renderConfig(answers)
	if err := utils.AtomicWriteFile(configPath, []byte(content), 0644); err != nil {
		fatal("failed to write %s: %v", configPath, err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("  [done] wrote " + configPath))
	fmt.Println()

	if term.Confirm("initialize the secrets store now?", true) {
		store := secrets.NewStore(answers.secretsDir)
		if err := store.Init(term); err != nil {
			fatal("failed to initialize secrets: %v", err)
		}
		fmt.Println(successStyle.Render("  [done] secrets store ready"))
		fmt.Println()
	}

	fmt.Println(dimStyle.Render("  check the environment with: ncdeploy doctor"))
	fmt.Println()
}

func askSetup(term *prompt.Terminal) (*setupAnswers, error) {
	a := &setupAnswers{}
	var err error

	if a.domain, err = term.Input("nextcloud domain (e.g. cloud.example.com)", ""); err != nil {
		return nil, err
	}
	if a.domain == "" {
		return nil, fmt.Errorf("a domain is required")
	}

	if a.dbName, err = term.Input("database name", "nextcloud"); err != nil {
		return nil, err
	}
	if a.dbUser, err = term.Input("database user", "nextcloud"); err != nil {
		return nil, err
	}
	if a.dataDir, err = term.Input("nextcloud data directory", "/srv/nextcloud/data"); err != nil {
		return nil, err
	}
	if a.backupDir, err = term.Input("backup directory", "/srv/nextcloud/backups"); err != nil {
		return nil, err
	}
	if a.secretsDir, err = term.Input("secrets directory", "/srv/nextcloud/secrets"); err != nil {
		return nil, err
	}

	a.encryption = term.Confirm("encrypt backups with GPG?", false)
	if a.encryption {
		if a.recipients, err = term.Input("gpg recipients (comma-separated key ids or emails)", ""); err != nil {
			return nil, err
		}
		if strings.TrimSpace(a.recipients) == "" {
			return nil, fmt.Errorf("encryption requires at least one recipient")
		}
		if a.types, err = term.Input("categories to encrypt (all, none, or comma-separated list)", "all"); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func renderConfig(a *setupAnswers) string {
	var b strings.Builder

	b.WriteString("# ncdeploy deployment configuration\n")
	b.WriteString("# generated by 'ncdeploy config'\n\n")

	b.WriteString(fmt.Sprintf("NEXTCLOUD_DOMAIN=%s\n\n", a.domain))

	b.WriteString("DB_TYPE=postgres\n")
	b.WriteString(fmt.Sprintf("DB_NAME=%s\n", a.dbName))
	b.WriteString(fmt.Sprintf("DB_USER=%s\n\n", a.dbUser))

	b.WriteString(fmt.Sprintf("DATA_DIR=%s\n", a.dataDir))
	b.WriteString(fmt.Sprintf("BACKUP_DIR=%s\n", a.backupDir))
	b.WriteString(fmt.Sprintf("SECRETS_DIR=%s\n\n", a.secretsDir))

	if a.encryption {
		b.WriteString("BACKUP_GPG_ENCRYPTION=true\n")
		b.WriteString(fmt.Sprintf("BACKUP_GPG_RECIPIENTS=%s\n", a.recipients))
		b.WriteString(fmt.Sprintf("BACKUP_GPG_ENCRYPT_TYPES=%s\n", a.types))
	} else {
		b.WriteString("BACKUP_GPG_ENCRYPTION=false\n")
	}

	return b.String()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
