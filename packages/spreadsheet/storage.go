package spreadsheet

import "github.com/markusbuck/spreadsheet/packages/dependency"

// Storage holds the tables a spreadsheet keeps in sync: the non-empty
// cells, the order their names were created in, the distinct formulas and
// who depends on whom
type Storage struct {
	cells    map[string]*cell
	names    *NameTable
	formulas *FormulaTable
	graph    *dependency.Graph
}

func newStorage() *Storage {
	return &Storage{
		cells:    make(map[string]*cell),
		names:    NewNameTable(),
		formulas: NewFormulaTable(),
		graph:    dependency.New(),
	}
}

// put stores a non-empty cell, keeping its place if it already existed
func (st *Storage) put(name string, c *cell) {
	st.names.Intern(name)
	if c.contents.Type == CellTypeFormula {
		c.contents.Formula = st.formulas.Intern(name, c.contents.Formula)
	} else {
		st.formulas.Release(name)
	}
	st.cells[name] = c
}

// remove deletes a cell. its dependency edges are left to the caller.
func (st *Storage) remove(name string) {
	st.names.Remove(name)
	st.formulas.Release(name)
	delete(st.cells, name)
}

func (st *Storage) get(name string) (*cell, bool) {
	c, ok := st.cells[name]
	return c, ok
}
