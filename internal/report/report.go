// Package report renders exception records for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"insightsfetch/internal/model"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseFormat normalizes an output format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be 'text' or 'json'", s)
	}
}

func WriteBanner(w io.Writer, hours, limit int) error {
	_, err := fmt.Fprintf(w, "Fetching recent exceptions from the last %d hours (limit: %d)...\n\n", hours, limit)
	return err
}

// WriteText prints one numbered block per record, or a single line naming
// the lookback window when there are none.
func WriteText(w io.Writer, records []model.ExceptionRecord, hours int) error {
	var b strings.Builder
	if len(records) == 0 {
		fmt.Fprintf(&b, "No exceptions found in the last %d hours.\n", hours)
	} else {
		fmt.Fprintf(&b, "Found %d exceptions:\n\n", len(records))
		for i, rec := range records {
			fmt.Fprintf(&b, "%d. [%s]\n", i+1, rec.Timestamp)
			fmt.Fprintf(&b, "   Type: %s\n", rec.Type)
			fmt.Fprintf(&b, "   Operation: %s\n", rec.OperationName)
			fmt.Fprintf(&b, "   Message: %s\n", rec.Message)
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Result is the JSON document written by WriteJSON and served by the HTTP API.
type Result struct {
	Count      int                     `json:"count"`
	Exceptions []model.ExceptionRecord `json:"exceptions"`
}

func NewResult(records []model.ExceptionRecord) Result {
	if records == nil {
		records = []model.ExceptionRecord{}
	}
	return Result{Count: len(records), Exceptions: records}
}

func WriteJSON(w io.Writer, records []model.ExceptionRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewResult(records))
}

// Write dispatches on format.
func Write(w io.Writer, format string, records []model.ExceptionRecord, hours int) error {
	if format == FormatJSON {
		return WriteJSON(w, records)
	}
	return WriteText(w, records, hours)
}
