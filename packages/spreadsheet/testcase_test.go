package spreadsheet

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/markusbuck/spreadsheet/packages/formula"
)

type SpreadsheetTestCase struct {
	t           *testing.T
	name        string
	spreadsheet *Spreadsheet
	err         error
	affected    []string
}

func NewSpreadsheetTestCase(t *testing.T, name string, opts ...Option) *SpreadsheetTestCase {
	return &SpreadsheetTestCase{
		t:           t,
		name:        name,
		spreadsheet: New(opts...),
	}
}

// Set expects the change to be accepted
func (tc *SpreadsheetTestCase) Set(name, raw string) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	tc.affected, tc.err = tc.spreadsheet.SetContent(name, raw)
	if tc.err != nil {
		tc.t.Errorf("%s: SetContent(%s, %q) failed: %v", tc.name, name, raw, tc.err)
	}
	return tc
}

// TrySet keeps the error for a following ExpectAppError
func (tc *SpreadsheetTestCase) TrySet(name, raw string) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	tc.affected, tc.err = tc.spreadsheet.SetContent(name, raw)
	return tc
}

func (tc *SpreadsheetTestCase) AssertAffected(expected ...string) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	if !reflect.DeepEqual(tc.affected, expected) {
		tc.t.Errorf("%s: affected = %v, want %v", tc.name, tc.affected, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellEq(name string, expected any) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.GetValue(name)
	if err != nil {
		tc.t.Errorf("%s: GetValue(%s) failed: %v", tc.name, name, err)
		return tc
	}

	switch exp := expected.(type) {
	case float64:
		if actual.Type != CellTypeNumber || math.Abs(actual.Number-exp) > 1e-10 {
			tc.t.Errorf("%s: Cell %s = %v (%s), want %v", tc.name, name, actual, actual.Type, expected)
		}
	case int:
		if actual.Type != CellTypeNumber || math.Abs(actual.Number-float64(exp)) > 1e-10 {
			tc.t.Errorf("%s: Cell %s = %v (%s), want %v", tc.name, name, actual, actual.Type, expected)
		}
	case string:
		if actual.Type != CellTypeText || actual.Text != exp {
			tc.t.Errorf("%s: Cell %s = %v (%s), want %q", tc.name, name, actual, actual.Type, exp)
		}
	case formula.ErrorCode:
		if actual.Type != CellTypeError || actual.Error.Code != exp {
			tc.t.Errorf("%s: Cell %s = %v, want error %v", tc.name, name, actual, formula.ErrorMapper[exp])
		}
	default:
		tc.t.Fatalf("%s: unsupported expected value %T", tc.name, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellErr(name string, code formula.ErrorCode) *SpreadsheetTestCase {
	return tc.AssertCellEq(name, code)
}

func (tc *SpreadsheetTestCase) AssertCellEmpty(name string) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	contents, err := tc.spreadsheet.GetContents(name)
	if err != nil {
		tc.t.Errorf("%s: GetContents(%s) failed: %v", tc.name, name, err)
		return tc
	}
	value, _ := tc.spreadsheet.GetValue(name)
	if !contents.IsEmpty() || !value.IsEmpty() {
		tc.t.Errorf("%s: Cell %s = %v / %v, want empty", tc.name, name, contents, value)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertContents(name string, expected Contents) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.GetContents(name)
	if err != nil {
		tc.t.Errorf("%s: GetContents(%s) failed: %v", tc.name, name, err)
		return tc
	}
	if !actual.Equal(expected) {
		tc.t.Errorf("%s: Cell %s contents = %v (%s), want %v (%s)", tc.name, name, actual, actual.Type, expected, expected.Type)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertNames(expected ...string) *SpreadsheetTestCase {
	if tc.err != nil {
		return tc
	}
	actual := tc.spreadsheet.NonEmptyNames()
	if len(expected) == 0 && len(actual) == 0 {
		return tc
	}
	if !reflect.DeepEqual(actual, expected) {
		tc.t.Errorf("%s: NonEmptyNames() = %v, want %v", tc.name, actual, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) ExpectAppError(expectedCode AppErrorCode) *SpreadsheetTestCase {
	if tc.err == nil {
		tc.t.Errorf("%s: Expected error with code %v, but got no error", tc.name, expectedCode)
		return tc
	}
	var appErr *AppError
	if errors.As(tc.err, &appErr) {
		if appErr.Code != expectedCode {
			tc.t.Errorf("%s: Got error code %v, want %v", tc.name, appErr.Code, expectedCode)
		}
	} else {
		tc.t.Errorf("%s: Got error %v, want AppError with code %v", tc.name, tc.err, expectedCode)
	}
	if tc.affected != nil {
		tc.t.Errorf("%s: rejected change returned affected cells %v", tc.name, tc.affected)
	}
	tc.err = nil
	return tc
}

func (tc *SpreadsheetTestCase) Spreadsheet() *Spreadsheet {
	return tc.spreadsheet
}

func (tc *SpreadsheetTestCase) End() {
	if tc.err != nil {
		tc.t.Errorf("%s: unexpected error left at end: %v", tc.name, tc.err)
	}
}
