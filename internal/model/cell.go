package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

type CellKind int

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellBool
	// CellOther holds objects and arrays, kept as raw JSON.
	CellOther
)

func (k CellKind) String() string {
	switch k {
	case CellNull:
		return "null"
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	default:
		return "other"
	}
}

// Cell is a single loosely-typed value in a result row.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
	Raw  json.RawMessage
}

func StringCell(s string) Cell  { return Cell{Kind: CellString, Str: s} }
func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Num: n} }
func BoolCell(b bool) Cell      { return Cell{Kind: CellBool, Bool: b} }
func NullCell() Cell            { return Cell{Kind: CellNull} }

// AsString returns the cell's string value and whether the cell holds a string.
func (c Cell) AsString() (string, bool) {
	if c.Kind != CellString {
		return "", false
	}
	return c.Str, true
}

// StringOr returns the string value, or def for any other kind.
func (c Cell) StringOr(def string) string {
	if s, ok := c.AsString(); ok {
		return s
	}
	return def
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*c = NullCell()
		return nil
	}

	switch data[0] {
	case 'n':
		*c = NullCell()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = StringCell(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*c = BoolCell(b)
	case '{', '[':
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		*c = Cell{Kind: CellOther, Raw: raw}
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if errors.Is(err, strconv.ErrRange) {
			// Out-of-range numbers keep their literal; Num holds ±Inf or 0.
			raw := make(json.RawMessage, len(data))
			copy(raw, data)
			*c = Cell{Kind: CellNumber, Num: n, Raw: raw}
			return nil
		}
		if err != nil {
			return err
		}
		*c = NumberCell(n)
	}
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Str)
	case CellNumber:
		if len(c.Raw) > 0 {
			return c.Raw, nil
		}
		return json.Marshal(c.Num)
	case CellBool:
		return json.Marshal(c.Bool)
	case CellOther:
		if len(c.Raw) > 0 {
			return c.Raw, nil
		}
	}
	return []byte("null"), nil
}
