package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/ncdeploy/ncdeploy/internal/config"
	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/internal/project"
	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("45"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)
)

var (
	configPath     string
	stackPath      string
	nonInteractive bool
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "ncdeploy",
	Short: "operate a Nextcloud compose deployment",
	Long: titleStyle.Render("ncdeploy") + "\n" +
		subtitleStyle.Render("backup, restore and update a Nextcloud docker compose stack") + "\n\n" +
		"Backups are category-scoped (database, data, config, volumes, logs),\n" +
		"optionally GPG-encrypted per category, and restorable one category at\n" +
		"a time. Updates snapshot each service before replacing it and roll\n" +
		"back automatically when the new container fails its health check.",
	Version: "0.3.0",
}

func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
	rootCmd.Version = fmt.Sprintf("%s (built: %s, commit: %s)", version, buildTime, gitCommit)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] %v", err)))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ncdeploy.conf", "path to the deployment configuration file")
	rootCmd.PersistentFlags().StringVar(&stackPath, "stack", "stack.toml", "path to the stack topology manifest")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; destructive confirmations fail closed")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// appEnv is everything a subcommand needs to build its orchestrators.
type appEnv struct {
	cfg       *models.Config
	stack     *models.StackConfig
	log       *logger.Logger
	confirmer prompt.Confirmer
}

func loadEnv() (*appEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	stack, err := project.LoadStack(stackPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	var confirmer prompt.Confirmer = prompt.NewTerminal()
	if nonInteractive {
		confirmer = prompt.NonInteractive{}
	}

	return &appEnv{cfg: cfg, stack: stack, log: log, confirmer: confirmer}, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] "+format, args...)))
	os.Exit(1)
}
