package spreadsheet

import (
	"strconv"

	"github.com/markusbuck/spreadsheet/packages/formula"
)

// CellType tags which field of Contents or Value is meaningful
type CellType uint8

const (
	CellTypeText    CellType = 0 // zero value, so an empty Contents is empty text
	CellTypeNumber  CellType = 1
	CellTypeFormula CellType = 2 // contents only
	CellTypeError   CellType = 3 // values only
)

func (t CellType) String() string {
	switch t {
	case CellTypeText:
		return "text"
	case CellTypeNumber:
		return "number"
	case CellTypeFormula:
		return "formula"
	case CellTypeError:
		return "error"
	}
	return "unknown"
}

// Contents is what a user put in a cell: a number, some text or a formula
type Contents struct {
	Type    CellType
	Number  float64
	Text    string
	Formula *formula.Formula
}

func NumberContents(n float64) Contents {
	return Contents{Type: CellTypeNumber, Number: n}
}

func TextContents(s string) Contents {
	return Contents{Type: CellTypeText, Text: s}
}

func FormulaContents(f *formula.Formula) Contents {
	return Contents{Type: CellTypeFormula, Formula: f}
}

// IsEmpty reports whether the contents are the empty text
func (c Contents) IsEmpty() bool {
	return c.Type == CellTypeText && c.Text == ""
}

// Equal compares contents by kind and payload. formulas compare by their
// canonical form.
func (c Contents) Equal(other Contents) bool {
	if c.Type != other.Type {
		return false
	}
	switch c.Type {
	case CellTypeNumber:
		return c.Number == other.Number
	case CellTypeFormula:
		return c.Formula.Equal(other.Formula)
	default:
		return c.Text == other.Text
	}
}

func (c Contents) String() string {
	switch c.Type {
	case CellTypeNumber:
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case CellTypeFormula:
		return "=" + c.Formula.String()
	default:
		return c.Text
	}
}

// Value is what a cell evaluates to: a number, some text or an evaluation
// error
type Value struct {
	Type   CellType
	Number float64
	Text   string
	Error  *formula.Error
}

func NumberValue(n float64) Value {
	return Value{Type: CellTypeNumber, Number: n}
}

func TextValue(s string) Value {
	return Value{Type: CellTypeText, Text: s}
}

func ErrorValue(err *formula.Error) Value {
	return Value{Type: CellTypeError, Error: err}
}

// IsEmpty reports whether the value is the empty text
func (v Value) IsEmpty() bool {
	return v.Type == CellTypeText && v.Text == ""
}

func (v Value) String() string {
	switch v.Type {
	case CellTypeNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case CellTypeError:
		return v.Error.String()
	default:
		return v.Text
	}
}

// cell is a stored, non-empty cell
type cell struct {
	raw      string // exactly as passed to SetContent
	contents Contents
	value    Value
}
