package models

// Config is the deployment configuration loaded once at startup from the
// KEY=VALUE environment file. Orchestrators receive it by pointer and never
// mutate it; only the interactive setup flow rewrites the file.
type Config struct {
	Domain string `mapstructure:"NEXTCLOUD_DOMAIN"`

	DBType      string `mapstructure:"DB_TYPE"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      int    `mapstructure:"DB_PORT"`
	DBName      string `mapstructure:"DB_NAME"`
	DBUser      string `mapstructure:"DB_USER"`
	DBContainer string `mapstructure:"DB_CONTAINER"`

	AppContainer   string `mapstructure:"APP_CONTAINER"`
	ComposeProject string `mapstructure:"COMPOSE_PROJECT"`
	ComposeFile    string `mapstructure:"COMPOSE_FILE"`

	DataDir    string `mapstructure:"DATA_DIR"`
	SecretsDir string `mapstructure:"SECRETS_DIR"`
	BackupDir  string `mapstructure:"BACKUP_DIR"`

	GPGEncryption    bool   `mapstructure:"BACKUP_GPG_ENCRYPTION"`
	GPGRecipients    string `mapstructure:"BACKUP_GPG_RECIPIENTS"`
	GPGEncryptTypes  string `mapstructure:"BACKUP_GPG_ENCRYPT_TYPES"`
	GPGCipher        string `mapstructure:"BACKUP_GPG_CIPHER"`
	GPGCompressLevel int    `mapstructure:"BACKUP_GPG_COMPRESS_LEVEL"`
	GPGHomedir       string `mapstructure:"BACKUP_GPG_HOMEDIR"`

	RequireMaintenance bool `mapstructure:"BACKUP_REQUIRE_MAINTENANCE"`

	RetentionDBDays     int `mapstructure:"RETENTION_DB_DAYS"`
	RetentionDataDays   int `mapstructure:"RETENTION_DATA_DAYS"`
	RetentionConfigDays int `mapstructure:"RETENTION_CONFIG_DAYS"`
	RetentionLogsDays   int `mapstructure:"RETENTION_LOGS_DAYS"`

	HealthTimeout         int `mapstructure:"UPDATE_HEALTH_TIMEOUT"`
	HealthInterval        int `mapstructure:"UPDATE_HEALTH_INTERVAL"`
	RollbackHealthTimeout int `mapstructure:"ROLLBACK_HEALTH_TIMEOUT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

// ExternalDB reports whether the database runs outside the managed
// container set.
func (c *Config) ExternalDB() bool {
	return c.DBHost != ""
}
