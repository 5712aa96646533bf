package spreadsheet

import "sort"

// NameTable remembers the order in which cell names were first created.
// a removed name loses its place, creating it again puts it at the end.
type NameTable struct {
	ids        map[string]uint32
	reverseMap map[uint32]string
	nextID     uint32
}

// NewNameTable creates a new name table
func NewNameTable() *NameTable {
	return &NameTable{
		ids:        make(map[string]uint32),
		reverseMap: make(map[uint32]string),
		nextID:     1, // start at 1, reserve 0 for unknown
	}
}

// Intern adds a name to the table if it is not already present and returns
// its ID
func (nt *NameTable) Intern(name string) uint32 {
	if id, exists := nt.ids[name]; exists {
		return id
	}

	id := nt.nextID
	nt.ids[name] = id
	nt.reverseMap[id] = name
	nt.nextID++

	return id
}

// Remove drops a name from the table. returns false if it was not present.
func (nt *NameTable) Remove(name string) bool {
	id, exists := nt.ids[name]
	if !exists {
		return false
	}
	delete(nt.ids, name)
	delete(nt.reverseMap, id)
	return true
}

// Names returns every name in insertion order
func (nt *NameTable) Names() []string {
	ids := make([]uint32, 0, len(nt.reverseMap))
	for id := range nt.reverseMap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = nt.reverseMap[id]
	}
	return names
}
