package spreadsheet

import "github.com/markusbuck/spreadsheet/packages/formula"

// FormulaTable stores formulas centrally so that cells holding equal
// formulas share one parsed instance. formulas are keyed by their display
// text and reference counted by the cells using them.
type FormulaTable struct {
	byKey     map[string]*formula.Formula // display text -> shared formula
	refCounts map[string]int              // display text -> cells using it

	formulaAtCell map[string]string // cell -> display text (reverse index)
}

// NewFormulaTable creates a new formula table
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		byKey:         make(map[string]*formula.Formula),
		refCounts:     make(map[string]int),
		formulaAtCell: make(map[string]string),
	}
}

// Intern records that cell holds f and returns the shared instance equal to
// f. whatever formula the cell held before is released.
func (ft *FormulaTable) Intern(cell string, f *formula.Formula) *formula.Formula {
	key := f.String()
	if old, ok := ft.formulaAtCell[cell]; ok {
		if old == key {
			return ft.byKey[key]
		}
		ft.release(old)
	}

	ft.formulaAtCell[cell] = key
	ft.refCounts[key]++
	if shared, ok := ft.byKey[key]; ok {
		return shared
	}
	ft.byKey[key] = f
	return f
}

// Release forgets the formula held by cell, if any
func (ft *FormulaTable) Release(cell string) {
	key, ok := ft.formulaAtCell[cell]
	if !ok {
		return
	}
	delete(ft.formulaAtCell, cell)
	ft.release(key)
}

func (ft *FormulaTable) release(key string) {
	ft.refCounts[key]--
	if ft.refCounts[key] <= 0 {
		delete(ft.refCounts, key)
		delete(ft.byKey, key)
	}
}

// Count returns the number of distinct formulas
func (ft *FormulaTable) Count() int {
	return len(ft.byKey)
}
