package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Folders FolderConfig
	SFTP    SFTPConfig
	SMTP    SMTPConfig
	GCP     GCPConfig
	Mail    MailConfig
}

// FolderConfig holds the local working directories for a run.
type FolderConfig struct {
	// InputDir is where SFTP-fetched statement and system files land.
	InputDir string `mapstructure:"input_dir"`
	// OutputDir is where the per-account BRS workbooks are written.
	OutputDir string `mapstructure:"output_dir"`
}

// SFTPConfig holds the bank SFTP endpoint settings.
type SFTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// BasePath is the remote directory prefix the per-account folders hang off.
	BasePath string `mapstructure:"base_path"`
}

// SMTPConfig holds outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GCPConfig holds the audit dataset and archive bucket settings.
type GCPConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Dataset         string
	ArchiveBucket   string `mapstructure:"archive_bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// MailConfig holds the standing notification recipients.
type MailConfig struct {
	Recipients []string
	CC         []string
}

// Load reads configuration from file and env. Env var overrides use prefix BRS_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("folders.input_dir", filepath.Join(os.TempDir(), "brs", "input"))
	v.SetDefault("folders.output_dir", filepath.Join(os.TempDir(), "brs", "output"))
	v.SetDefault("sftp.port", 22)
	v.SetDefault("sftp.base_path", "/BRS/Bank Reco")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("gcp.dataset", "brs")

	v.SetConfigType("yaml")

	cfgPath := os.Getenv("BRS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "brs"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BRS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate reports the settings a full run cannot do without. Individual
// subsystems degrade gracefully when their settings are absent (audit and
// archive are best-effort), so only the folder layout is mandatory.
func (c Config) Validate() error {
	if c.Folders.InputDir == "" {
		return fmt.Errorf("config: folders.input_dir is required")
	}
	if c.Folders.OutputDir == "" {
		return fmt.Errorf("config: folders.output_dir is required")
	}
	return nil
}
