// Package query builds the KQL used to search the exceptions table.
package query

import (
	"fmt"
	"strings"

	"insightsfetch/helper"
)

const (
	DefaultHours = 24
	DefaultLimit = 50
)

// Params are the user-supplied search filters. A nil Type or Message means
// the filter is absent; a non-nil empty string is still applied.
type Params struct {
	Hours   int
	Limit   int
	Type    *string
	Message *string
}

// Filter returns a pointer to s for use as an optional Params field.
func Filter(s string) *string {
	return &s
}

// Build returns the KQL pipeline for p. Hours and Limit are passed through
// unchecked; the backend decides what to do with zero or negative values.
func Build(p Params) string {
	clauses := []string{
		"exceptions",
		fmt.Sprintf("| where timestamp > ago(%dh)", p.Hours),
	}
	if p.Type != nil {
		clauses = append(clauses, fmt.Sprintf(`| where type == "%s"`, helper.EscapeKQLString(*p.Type)))
	}
	if p.Message != nil {
		clauses = append(clauses, fmt.Sprintf(`| where outerMessage contains "%s"`, helper.EscapeKQLString(*p.Message)))
	}
	clauses = append(clauses,
		"| project timestamp, type, outerMessage, operation_Name",
		"| order by timestamp desc",
		fmt.Sprintf("| limit %d", p.Limit),
	)
	return strings.Join(clauses, "\n")
}
