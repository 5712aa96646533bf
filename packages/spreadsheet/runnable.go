package spreadsheet

import (
	"fmt"

	"github.com/markusbuck/spreadsheet/packages/persist"
)

// RunnableSpreadsheet provides a chainable interface for spreadsheet
// operations. wraps the standard Spreadsheet and tracks errors internally:
// once a step fails every following step is a no-op.
type RunnableSpreadsheet struct {
	spreadsheet *Spreadsheet
	err         error
	affected    []string
	printLn     func(string)
}

// NewRunnableSpreadsheet wraps s. printLn is required and will be used for
// all logging operations (Log, LogAffected)
func NewRunnableSpreadsheet(s *Spreadsheet, printLn func(string)) *RunnableSpreadsheet {
	return &RunnableSpreadsheet{
		spreadsheet: s,
		printLn:     printLn,
	}
}

// Set sets a cell's contents (chainable). the cells it recalculated are
// added to Affected.
func (r *RunnableSpreadsheet) Set(name, raw string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	order, err := r.spreadsheet.SetContent(name, raw)
	if err != nil {
		r.err = err
		return r
	}
	r.affected = appendUnique(r.affected, order)
	return r
}

// SetBatch sets several cells in the given order (chainable)
func (r *RunnableSpreadsheet) SetBatch(cells ...persist.Record) *RunnableSpreadsheet {
	for _, c := range cells {
		if r.Set(c.Name, c.Contents); r.err != nil {
			return r // stop on first error
		}
	}
	return r
}

// Value is a helper to get a single value from the chain
func (r *RunnableSpreadsheet) Value(name string) Value {
	if r.err != nil {
		return Value{}
	}
	val, err := r.spreadsheet.GetValue(name)
	if err != nil {
		r.err = err
		return Value{}
	}
	return val
}

// Values is a helper to get multiple values from the chain
func (r *RunnableSpreadsheet) Values(names ...string) []Value {
	if r.err != nil {
		return nil
	}
	values := make([]Value, len(names))
	for i, name := range names {
		val, err := r.spreadsheet.GetValue(name)
		if err != nil {
			r.err = err
			return nil
		}
		values[i] = val
	}
	return values
}

// Log prints a cell's value as "name = value" using the provided printLn
// function (chainable). error values are followed by their message.
func (r *RunnableSpreadsheet) Log(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	val, err := r.spreadsheet.GetValue(name)
	if err != nil {
		r.err = err
		return r
	}
	if val.Type == CellTypeError {
		r.printLn(fmt.Sprintf("%s = %s (%s)", name, val, val.Error.Message))
	} else {
		r.printLn(fmt.Sprintf("%s = %s", name, val))
	}
	return r
}

// LogAffected logs every cell recalculated so far (chainable)
func (r *RunnableSpreadsheet) LogAffected() *RunnableSpreadsheet {
	for _, name := range r.affected {
		r.Log(name)
	}
	return r
}

// Affected returns every cell recalculated so far, without duplicates, in
// the order they were first recalculated
func (r *RunnableSpreadsheet) Affected() []string {
	return r.affected
}

// Error returns the current error state
func (r *RunnableSpreadsheet) Error() error {
	return r.err
}

// Spreadsheet returns the underlying spreadsheet
func (r *RunnableSpreadsheet) Spreadsheet() *Spreadsheet {
	return r.spreadsheet
}

// Reset clears the error state (chainable)
func (r *RunnableSpreadsheet) Reset() *RunnableSpreadsheet {
	r.err = nil
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSpreadsheet) Then(fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	return fn(r)
}

// OnError allows error handling in the chain. fn may replace the error, or
// clear it by returning nil.
func (r *RunnableSpreadsheet) OnError(fn func(error) error) *RunnableSpreadsheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Must panics if there's an error (chainable)
func (r *RunnableSpreadsheet) Must() *RunnableSpreadsheet {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			dst = append(dst, s)
		}
	}
	return dst
}
