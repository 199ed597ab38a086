package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/spf13/viper"
)

// Categories are the fixed backup domains, in full-backup order.
var Categories = []string{"database", "data", "config", "volumes", "logs"}

// ValidCategory reports whether name is one of the fixed backup categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Load reads the line-oriented KEY=VALUE configuration file, applies
// defaults and validates the result. The returned config is treated as
// immutable for the rest of the process.
func Load(path string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s (run 'ncdeploy config' to create it)", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_TYPE", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "nextcloud")
	v.SetDefault("DB_USER", "nextcloud")
	v.SetDefault("DB_CONTAINER", "nextcloud-db")
	v.SetDefault("APP_CONTAINER", "nextcloud-app")
	v.SetDefault("COMPOSE_PROJECT", "nextcloud")
	v.SetDefault("COMPOSE_FILE", "docker-compose.yml")
	v.SetDefault("DATA_DIR", "/opt/nextcloud/data")
	v.SetDefault("SECRETS_DIR", "/opt/nextcloud/secrets")
	v.SetDefault("BACKUP_DIR", "/opt/nextcloud/backups")
	v.SetDefault("BACKUP_GPG_ENCRYPTION", false)
	v.SetDefault("BACKUP_GPG_ENCRYPT_TYPES", "all")
	v.SetDefault("BACKUP_GPG_CIPHER", "AES256")
	v.SetDefault("BACKUP_GPG_COMPRESS_LEVEL", 6)
	v.SetDefault("BACKUP_REQUIRE_MAINTENANCE", false)
	v.SetDefault("RETENTION_DB_DAYS", 14)
	v.SetDefault("RETENTION_DATA_DAYS", 14)
	v.SetDefault("RETENTION_CONFIG_DAYS", 30)
	v.SetDefault("RETENTION_LOGS_DAYS", 7)
	v.SetDefault("UPDATE_HEALTH_TIMEOUT", 120)
	v.SetDefault("UPDATE_HEALTH_INTERVAL", 5)
	v.SetDefault("ROLLBACK_HEALTH_TIMEOUT", 60)
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate enforces the fail-fast invariants: every key an orchestrator
// consumes has a value, and encryption never runs without recipients.
func Validate(cfg *models.Config) error {
	if cfg.Domain == "" {
		return fmt.Errorf("NEXTCLOUD_DOMAIN is required")
	}
	if cfg.DBType != "postgres" {
		return fmt.Errorf("DB_TYPE %q is not supported (only postgres)", cfg.DBType)
	}
	if cfg.DataDir == "" || cfg.SecretsDir == "" || cfg.BackupDir == "" {
		return fmt.Errorf("DATA_DIR, SECRETS_DIR and BACKUP_DIR must all be set")
	}

	if cfg.GPGEncryption {
		recipients := 0
		for _, r := range strings.Split(cfg.GPGRecipients, ",") {
			if strings.TrimSpace(r) != "" {
				recipients++
			}
		}
		if recipients == 0 {
			return fmt.Errorf("BACKUP_GPG_ENCRYPTION is enabled but BACKUP_GPG_RECIPIENTS is empty")
		}
	}

	types := strings.TrimSpace(cfg.GPGEncryptTypes)
	if types != "all" && types != "none" {
		for _, t := range strings.Split(types, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if !validEncryptType(t) {
				return fmt.Errorf("BACKUP_GPG_ENCRYPT_TYPES contains unknown category %q", t)
			}
		}
	}

	for key, days := range map[string]int{
		"RETENTION_DB_DAYS":     cfg.RetentionDBDays,
		"RETENTION_DATA_DAYS":   cfg.RetentionDataDays,
		"RETENTION_CONFIG_DAYS": cfg.RetentionConfigDays,
		"RETENTION_LOGS_DAYS":   cfg.RetentionLogsDays,
	} {
		if days <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, days)
		}
	}

	if cfg.HealthTimeout <= 0 || cfg.HealthInterval <= 0 || cfg.RollbackHealthTimeout <= 0 {
		return fmt.Errorf("health check timeouts and interval must be positive")
	}

	return nil
}

func validEncryptType(t string) bool {
	if t == "secrets" {
		return true
	}
	for _, c := range Categories {
		if t == c {
			return true
		}
	}
	return false
}
