// Package spreadsheet is a reactive store of named cells. Setting a cell's
// contents re-evaluates every formula that depends on it, directly or
// through other cells, in an order where each cell comes after everything
// it reads from.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/metric"

	"github.com/markusbuck/spreadsheet/packages/formula"
)

// DefaultVersion is the version tag used when none is configured
const DefaultVersion = "default"

// AppErrorCode identifies the category of an application-level error.
// evaluation errors inside cells are values, not AppErrors.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidName means a cell name does not look like a variable or was
	// rejected by the configured validator.
	InvalidName AppErrorCode = 1

	// FormulaFormat means the contents started with '=' but the rest is
	// not a well formed formula.
	FormulaFormat AppErrorCode = 2

	// CircularDependency means the change would make a cell depend on
	// itself. the spreadsheet is left exactly as it was.
	CircularDependency AppErrorCode = 3

	// ReadWrite covers every failure while saving or loading.
	ReadWrite AppErrorCode = 4
)

// AppError represents errors at the application level (not formula
// evaluation errors stored in cells)
type AppError struct {
	Code    AppErrorCode
	Message string
	Name    string   // cell involved, if any
	Cycle   []string // for CircularDependency, the cells forming the cycle
	Err     error    // underlying cause, if any
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError with the same code, so callers can compare
// against the Err* values with errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrInvalidName        = NewApplicationError(InvalidName, "spreadsheet: invalid cell name")
	ErrFormulaFormat      = NewApplicationError(FormulaFormat, "spreadsheet: invalid formula")
	ErrCircularDependency = NewApplicationError(CircularDependency, "spreadsheet: circular dependency")
	ErrReadWrite          = NewApplicationError(ReadWrite, "spreadsheet: read/write failure")
)

// Option configures a Spreadsheet
type Option func(*Spreadsheet)

// WithNormalizer sets the function applied to every cell name and formula
// variable before it is used
func WithNormalizer(n formula.Normalizer) Option {
	return func(s *Spreadsheet) {
		if n != nil {
			s.normalize = n
		}
	}
}

// WithValidator sets the predicate every normalized name must satisfy
func WithValidator(v formula.Validator) Option {
	return func(s *Spreadsheet) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithVersion sets the version tag written on save and required on load
func WithVersion(version string) Option {
	return func(s *Spreadsheet) {
		s.version = version
	}
}

// WithLogger sets the logger. the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spreadsheet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMeterProvider sets where metrics are reported. the default is the
// global otel provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(s *Spreadsheet) {
		s.meterProvider = provider
	}
}

// Spreadsheet is a set of named cells kept consistent on every change. it
// is not safe for concurrent use.
type Spreadsheet struct {
	storage *Storage

	normalize formula.Normalizer
	validate  formula.Validator
	version   string
	changed   bool

	logger        *slog.Logger
	meterProvider metric.MeterProvider
	metrics       *metrics
}

// New creates an empty spreadsheet
func New(opts ...Option) *Spreadsheet {
	s := &Spreadsheet{
		storage:   newStorage(),
		normalize: func(name string) string { return name },
		validate:  func(string) bool { return true },
		version:   DefaultVersion,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.meterProvider)
	return s
}

// SetContent classifies raw as a number, a formula (leading '=') or text,
// stores it in the named cell and re-evaluates everything that depends on
// that cell. it returns the name followed by every re-evaluated cell, in
// evaluation order. empty or whitespace-only text removes the cell.
//
// an invalid name, a malformed formula or a change that would create a
// circular dependency is rejected without modifying the spreadsheet.
func (s *Spreadsheet) SetContent(name, raw string) ([]string, error) {
	ctx := context.Background()
	start := time.Now()

	name, err := s.checkName(name)
	if err != nil {
		s.metrics.recordSet(ctx, resultInvalidName, time.Since(start), 0)
		return nil, err
	}

	contents, err := s.classify(raw)
	if err != nil {
		s.metrics.recordSet(ctx, resultFormat, time.Since(start), 0)
		return nil, &AppError{
			Code:    FormulaFormat,
			Name:    name,
			Message: fmt.Sprintf("spreadsheet: cell %s: %v", name, err),
			Err:     err,
		}
	}

	var dependees []string
	if contents.Type == CellTypeFormula {
		dependees = contents.Formula.Variables()
	}

	order, err := s.recalculationOrder(name, dependees)
	if err != nil {
		s.logger.Info("rejected circular change", "cell", name, "contents", raw, "error", err)
		s.metrics.recordSet(ctx, resultCircular, time.Since(start), 0)
		return nil, err
	}

	// nothing below can fail
	s.storage.graph.ReplaceDependees(name, dependees)
	if contents.Type == CellTypeText && strings.TrimSpace(contents.Text) == "" {
		s.storage.remove(name)
	} else {
		s.storage.put(name, &cell{raw: raw, contents: contents})
	}
	s.recalculate(ctx, order)
	s.changed = true

	s.logger.Debug("cell updated", "cell", name, "type", contents.Type, "recalculated", len(order), "formulas", s.storage.formulas.Count())
	s.metrics.recordSet(ctx, resultOK, time.Since(start), len(order))
	return order, nil
}

// recalculate evaluates every cell in order. a cell earlier in the order
// never reads from a cell later in it.
func (s *Spreadsheet) recalculate(ctx context.Context, order []string) {
	for _, name := range order {
		c, ok := s.storage.get(name)
		if !ok {
			// the changed cell was just removed
			continue
		}

		switch c.contents.Type {
		case CellTypeNumber:
			c.value = NumberValue(c.contents.Number)
		case CellTypeText:
			c.value = TextValue(c.contents.Text)
		case CellTypeFormula:
			v, err := c.contents.Formula.Evaluate(s.lookup)
			if err != nil {
				var ferr *formula.Error
				if !errors.As(err, &ferr) {
					ferr = &formula.Error{Code: formula.ErrorCodeRef, Message: err.Error()}
				}
				c.value = ErrorValue(ferr)
				s.metrics.recordCellError(ctx, ferr.String())
				continue
			}
			c.value = NumberValue(v)
		}
	}
}

// lookup resolves a formula variable to the numeric value of its cell
func (s *Spreadsheet) lookup(name string) (float64, error) {
	c, ok := s.storage.get(name)
	if !ok {
		return 0, fmt.Errorf("cell %s is empty", name)
	}
	if c.value.Type != CellTypeNumber {
		return 0, fmt.Errorf("cell %s does not hold a number", name)
	}
	return c.value.Number, nil
}

// checkName normalizes name and makes sure it is acceptable
func (s *Spreadsheet) checkName(name string) (string, error) {
	normalized := s.normalize(name)
	if !formula.IsVariable(normalized) || !s.validate(normalized) {
		return "", &AppError{
			Code:    InvalidName,
			Name:    name,
			Message: fmt.Sprintf("spreadsheet: invalid cell name %q", name),
		}
	}
	return normalized, nil
}

// classify turns raw user input into cell contents
func (s *Spreadsheet) classify(raw string) (Contents, error) {
	if n, ok := parseNumber(raw); ok {
		return NumberContents(n), nil
	}

	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	if strings.HasPrefix(trimmed, "=") {
		f, err := formula.New(trimmed[1:], s.normalize, s.validate)
		if err != nil {
			return Contents{}, err
		}
		return FormulaContents(f), nil
	}

	return TextContents(raw), nil
}

// parseNumber accepts plain decimal literals, optionally surrounded by
// whitespace. NaN, infinities, hex floats and digit separators are text.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// GetContents returns what the named cell holds. an empty cell holds the
// empty text.
func (s *Spreadsheet) GetContents(name string) (Contents, error) {
	name, err := s.checkName(name)
	if err != nil {
		return Contents{}, err
	}
	if c, ok := s.storage.get(name); ok {
		return c.contents, nil
	}
	return TextContents(""), nil
}

// GetValue returns the named cell's last computed value. an empty cell's
// value is the empty text.
func (s *Spreadsheet) GetValue(name string) (Value, error) {
	name, err := s.checkName(name)
	if err != nil {
		return Value{}, err
	}
	if c, ok := s.storage.get(name); ok {
		return c.value, nil
	}
	return TextValue(""), nil
}

// RawContents returns the named cell's contents exactly as they were set
func (s *Spreadsheet) RawContents(name string) (string, error) {
	name, err := s.checkName(name)
	if err != nil {
		return "", err
	}
	if c, ok := s.storage.get(name); ok {
		return c.raw, nil
	}
	return "", nil
}

// DirectDependents returns the cells whose formulas read the named cell
func (s *Spreadsheet) DirectDependents(name string) ([]string, error) {
	name, err := s.checkName(name)
	if err != nil {
		return nil, err
	}
	return s.storage.graph.Dependents(name), nil
}

// NonEmptyNames returns every non-empty cell in the order the cells were
// created
func (s *Spreadsheet) NonEmptyNames() []string {
	return s.storage.names.Names()
}

// Len returns the number of non-empty cells
func (s *Spreadsheet) Len() int {
	return len(s.storage.cells)
}

// Changed reports whether the spreadsheet was modified since it was
// created, loaded or saved
func (s *Spreadsheet) Changed() bool {
	return s.changed
}

// Version returns the version tag used for saving and loading
func (s *Spreadsheet) Version() string {
	return s.version
}
