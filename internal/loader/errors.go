package loader

import (
	"fmt"
	"strings"
)

// ValidationError reports required columns missing from a loaded table.
// Column validation is a hard precondition: callers get the typed error and
// must decide explicitly whether a run can proceed without the file.
type ValidationError struct {
	File    string
	Missing []string
	Found   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("loader: %s: missing required columns [%s] (found: [%s])",
		e.File, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// FormatError reports a file extension outside the accepted set.
type FormatError struct {
	File string
	Ext  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("loader: %s: unsupported extension %q (accepted: %s)",
		e.File, e.Ext, strings.Join(acceptedExtensions, ", "))
}
