// Package archive keeps a durable copy of each day's BRS workbooks in a
// GCS bucket. The SFTP output folder is the bank's working copy and gets
// pruned by their retention job; the bucket is ours.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"google.golang.org/api/option"
)

// ObjectName places a workbook under brs/<account>/<yyyy-mm-dd>/.
func ObjectName(accountID string, processing time.Time, filename string) string {
	return path.Join("brs", accountID, processing.Format("2006-01-02"), filename)
}

// Store uploads the local files to the archive bucket. Archiving is
// best-effort with the same policy as the SFTP upload: failures are
// logged per file and never fail the run.
func Store(ctx context.Context, cfg config.GCPConfig, accountID string, processing time.Time, localPaths []string) {
	log := logger.FromContext(ctx)

	if cfg.ArchiveBucket == "" {
		log.Warn().Msg("No archive bucket configured, skipping archive")
		return
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Archive storage client unavailable, skipping archive")
		return
	}
	defer client.Close()

	bkt := client.Bucket(cfg.ArchiveBucket)
	archived := 0
	for _, local := range localPaths {
		object := ObjectName(accountID, processing, path.Base(local))
		if err := upload(ctx, bkt, object, local); err != nil {
			log.Error().Err(err).Str("object", object).Msg("Archive upload failed")
			continue
		}
		archived++
	}

	log.Info().
		Str("bucket", cfg.ArchiveBucket).
		Int("archived", archived).
		Int("requested", len(localPaths)).
		Msg("Workbooks archived")
}

func upload(ctx context.Context, bkt *storage.BucketHandle, object, local string) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open file %q: %w", local, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bkt.Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}
