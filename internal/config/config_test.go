package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("BRS_CONFIG", path)
}

// Every documented snake_case key must survive the round trip from file
// to struct field.
func TestLoadFromFile(t *testing.T) {
	writeConfig(t, `
folders:
  input_dir: /srv/brs/in
  output_dir: /srv/brs/out
sftp:
  host: sftp.bank.example
  port: 2022
  username: brs
  password: secret
  base_path: /BRS/Recon
smtp:
  host: mail.example
  port: 465
  from: brs@meridianfin.example
gcp:
  project_id: fin-prod
  dataset: brs_audit
  archive_bucket: fin-brs-archive
  credentials_file: /etc/brs/sa.json
mail:
  recipients:
    - ops@meridianfin.example
  cc:
    - treasury@meridianfin.example
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/brs/in", cfg.Folders.InputDir)
	assert.Equal(t, "/srv/brs/out", cfg.Folders.OutputDir)
	assert.Equal(t, "sftp.bank.example", cfg.SFTP.Host)
	assert.Equal(t, 2022, cfg.SFTP.Port)
	assert.Equal(t, "/BRS/Recon", cfg.SFTP.BasePath)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "brs@meridianfin.example", cfg.SMTP.From)
	assert.Equal(t, "fin-prod", cfg.GCP.ProjectID)
	assert.Equal(t, "brs_audit", cfg.GCP.Dataset)
	assert.Equal(t, "fin-brs-archive", cfg.GCP.ArchiveBucket)
	assert.Equal(t, "/etc/brs/sa.json", cfg.GCP.CredentialsFile)
	assert.Equal(t, []string{"ops@meridianfin.example"}, cfg.Mail.Recipients)
	assert.Equal(t, []string{"treasury@meridianfin.example"}, cfg.Mail.CC)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	writeConfig(t, "{}\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Folders.InputDir)
	assert.NotEmpty(t, cfg.Folders.OutputDir)
	assert.Equal(t, 22, cfg.SFTP.Port)
	assert.Equal(t, "/BRS/Bank Reco", cfg.SFTP.BasePath)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "brs", cfg.GCP.Dataset)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresFolders(t *testing.T) {
	cfg := Config{}
	cfg.Folders.OutputDir = "/srv/brs/out"
	assert.ErrorContains(t, cfg.Validate(), "input_dir")

	cfg.Folders.InputDir = "/srv/brs/in"
	cfg.Folders.OutputDir = ""
	assert.ErrorContains(t, cfg.Validate(), "output_dir")
}
