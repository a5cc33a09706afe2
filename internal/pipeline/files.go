package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// filePrefixes maps a profile file key to the filename prefix the bank and
// the system teams use when dropping inputs, e.g. transactionsummary_86033.xlsx.
var filePrefixes = map[string]string{
	"statement": "transactionsummary",
	"brs":       "brs",
	"gl":        "glstaging",
	"gl2":       "glstaging2",
	"bankbook":  "bankbook",
	"bbps":      "bbps",
	"cash":      "cash",
	"upi":       "upi",
}

// findInputFile locates the input for a file key in the account's input
// directory by prefix, case-insensitively. An empty string means the file
// was not delivered.
func findInputFile(dir, fileKey, accountID string) (string, error) {
	prefix, ok := filePrefixes[fileKey]
	if !ok {
		return "", fmt.Errorf("pipeline: no filename prefix for file key %q", fileKey)
	}
	want := strings.ToLower(fmt.Sprintf("%s_%s", prefix, accountID))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("pipeline: read input dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if base == want {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}
