package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meridianfin/brs/internal/audit"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFindInputFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"TransactionSummary_9197.XLSX", "brs_9197.xlsx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	path, err := findInputFile(dir, "statement", "9197")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "TransactionSummary_9197.XLSX"), path)

	path, err = findInputFile(dir, "bankbook", "9197")
	require.NoError(t, err)
	assert.Empty(t, path, "undelivered file should resolve to empty, not error")

	_, err = findInputFile(dir, "nonsense", "9197")
	assert.Error(t, err)
}

func TestFindInputFileIgnoresOtherAccounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactionsummary_86033.xlsx"), []byte("x"), 0o644))

	path, err := findInputFile(dir, "statement", "9197")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func testRunner(t *testing.T, inputDir, outputDir string) (*Runner, context.Context) {
	t.Helper()
	log := logger.NewWithWriter(io.Discard)
	ctx := logger.WithContext(context.Background(), log)

	cfg := config.Config{}
	cfg.Folders.InputDir = inputDir
	cfg.Folders.OutputDir = outputDir

	recorder := audit.NewRecorder(ctx, config.GCPConfig{})
	return NewRunner(cfg, log, nil, recorder), ctx
}

func TestRunnerEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	statement := "Account Statement\n" +
		"Transaction Particulars,Value Date,Amount(INR),DR|CR,Balance(INR)\n" +
		"NEFT/AXIR991234/VENDOR PAYOUT,31-03-2025,\"1,000.00\",DR,\"9,000.00\"\n" +
		"UPI/P2A/506123/CUSTOMER,31-03-2025,250.50,CR,\"9,250.50\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "transactionsummary_9197.csv"), []byte(statement), 0o644))

	runner, ctx := testRunner(t, inputDir, outputDir)
	processing := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	msg, status, err := runner.Run(ctx, "9197", processing, "ops@meridianfin.test")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, "Reconciliation completed", msg)

	out := filepath.Join(outputDir, "BRS_9197.xlsx")
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	idx, err := f.GetSheetIndex("31.03.25")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0, "the run should write a sheet named for the processing date")
}

func TestRunnerMissingStatement(t *testing.T) {
	runner, ctx := testRunner(t, t.TempDir(), t.TempDir())
	processing := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	msg, status, err := runner.Run(ctx, "9197", processing, "")
	assert.Error(t, err)
	assert.Equal(t, StatusFailure, status)
	assert.Contains(t, msg, "statement")
}

func TestRunnerUnknownAccount(t *testing.T) {
	runner, ctx := testRunner(t, t.TempDir(), t.TempDir())

	_, status, err := runner.Run(ctx, "123", time.Now(), "")
	assert.Error(t, err)
	assert.Equal(t, StatusFailure, status)
}
