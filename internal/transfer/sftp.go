// Package transfer moves input and output files between the local working
// directories and the bank's SFTP server. Each account has its own remote
// folder pair under the configured base path:
//
//	<base> <account>/Input Files
//	<base> <account>/Output Files
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	connectAttempts = 3
	connectDelay    = 5 * time.Second
)

// Client is a connected SFTP session.
type Client struct {
	cfg  config.SFTPConfig
	conn *ssh.Client
	sftp *sftp.Client
}

// Dial connects to the configured SFTP endpoint, retrying the connection a
// few times before giving up. The bank's gateway drops the first attempt
// often enough that a single try is not reliable.
func Dial(ctx context.Context, cfg config.SFTPConfig) (*Client, error) {
	log := logger.FromContext(ctx)

	sshCfg := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{ssh.Password(cfg.Password)},
		// The gateway presents a self-signed key that rotates without
		// notice; host key pinning is handled at the network boundary.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err := ssh.Dial("tcp", addr, sshCfg)
		if err == nil {
			client, err := sftp.NewClient(conn)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("transfer: sftp session: %w", err)
			}
			return &Client{cfg: cfg, conn: conn, sftp: client}, nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("addr", addr).
			Msg("SFTP connect failed")
		if attempt < connectAttempts {
			select {
			case <-time.After(connectDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("transfer: connect %s after %d attempts: %w", addr, connectAttempts, lastErr)
}

// Close tears down the SFTP session and the underlying SSH connection.
func (c *Client) Close() error {
	if c.sftp != nil {
		c.sftp.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) inputDir(accountID string) string {
	return path.Join(fmt.Sprintf("%s %s", c.cfg.BasePath, accountID), "Input Files")
}

func (c *Client) outputDir(accountID string) string {
	return path.Join(fmt.Sprintf("%s %s", c.cfg.BasePath, accountID), "Output Files")
}

// FetchInputs downloads every file in the account's Input Files folder
// into localDir and returns the local paths. A file that fails to copy is
// logged and skipped; whether the run can proceed depends on which file it
// was, and that is the loader's call, not the transfer layer's.
func (c *Client) FetchInputs(ctx context.Context, accountID, localDir string) ([]string, error) {
	log := logger.FromContext(ctx)
	remoteDir := c.inputDir(accountID)

	entries, err := c.sftp.ReadDir(remoteDir)
	if err != nil {
		return nil, fmt.Errorf("transfer: list %s: %w", remoteDir, err)
	}
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("transfer: mkdir %s: %w", localDir, err)
	}

	var fetched []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		remote := path.Join(remoteDir, entry.Name())
		local := filepath.Join(localDir, entry.Name())
		if err := c.download(remote, local); err != nil {
			log.Error().Err(err).Str("remote", remote).Msg("Input file download failed")
			continue
		}
		fetched = append(fetched, local)
	}

	log.Info().
		Str("remote_dir", remoteDir).
		Int("fetched", len(fetched)).
		Int("listed", len(entries)).
		Msg("Input files fetched")
	return fetched, nil
}

// UploadOutputs copies the given local files into the account's Output
// Files folder. Upload failures are logged per file and do not fail the
// run; the reconciliation result already exists locally.
func (c *Client) UploadOutputs(ctx context.Context, accountID string, localPaths []string) {
	log := logger.FromContext(ctx)
	remoteDir := c.outputDir(accountID)

	_ = c.sftp.MkdirAll(remoteDir)

	uploaded := 0
	for _, local := range localPaths {
		if _, err := os.Stat(local); err != nil {
			log.Error().Err(err).Str("local", local).Msg("Output file missing, skipping upload")
			continue
		}
		remote := path.Join(remoteDir, filepath.Base(local))
		if err := c.upload(local, remote); err != nil {
			log.Error().Err(err).Str("remote", remote).Msg("Output file upload failed")
			continue
		}
		uploaded++
	}

	log.Info().
		Str("remote_dir", remoteDir).
		Int("uploaded", uploaded).
		Int("requested", len(localPaths)).
		Msg("Output files uploaded")
}

func (c *Client) download(remote, local string) error {
	src, err := c.sftp.Open(remote)
	if err != nil {
		return fmt.Errorf("open remote: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create local: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return dst.Close()
}

func (c *Client) upload(local, remote string) error {
	src, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open local: %w", err)
	}
	defer src.Close()

	dst, err := c.sftp.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return dst.Close()
}
