package lineage

import "unsafe"

// ---------------------------------------------------------------------------
// Table: layered dispatch table
// ---------------------------------------------------------------------------

// Slot converts a raw pointer to a concrete object into the dynamic view
// exposed at one hierarchy level. The pointer passed in always addresses
// the concrete class's full representation; the slot decides which view
// of it to hand out.
type Slot func(unsafe.Pointer) any

// Table holds the per-level view converters for one class.
//
// Slots are ordered own level first: slots[0] serves the class's own
// depth, slots[i] serves depth(class)-i, and the last slot serves the
// root. A class's table is its parent's full table with one new slot
// prefixed, so the parent's table is always a suffix; dispatch indexes
// by depth difference and lands on the same content no matter how many
// descendant levels were layered above.
//
// Tables are built once during descriptor construction and never
// mutated afterwards.
type Table struct {
	slots  []Slot
	owners []*Descriptor // class whose declaration supplied each slot
}

// newTable builds a table from an own-level converter and the parent's
// full table. The parent's slots are copied, not shared, so overrides
// applied to this table never leak upward.
func newTable(owner *Descriptor, own Slot, parent *Table) *Table {
	n := 1
	if parent != nil {
		n += len(parent.slots)
	}
	t := &Table{
		slots:  make([]Slot, n),
		owners: make([]*Descriptor, n),
	}
	t.slots[0] = own
	t.owners[0] = owner
	if parent != nil {
		copy(t.slots[1:], parent.slots)
		copy(t.owners[1:], parent.owners)
	}
	return t
}

// override replaces the slot at the given offset from the own level.
// Only called during descriptor construction.
func (t *Table) override(owner *Descriptor, offset int, s Slot) {
	t.slots[offset] = s
	t.owners[offset] = owner
}

// slot returns the converter at the given offset from the own level.
func (t *Table) slot(offset int) Slot {
	return t.slots[offset]
}

// Len returns the number of slots (class depth + 1).
func (t *Table) Len() int {
	return len(t.slots)
}

// Reinterpret returns the default view converter for class T: a pure
// pointer reinterpretation. The resulting view is the *T itself, which
// is valid for any level whose view interface *T satisfies.
func Reinterpret[T any]() Slot {
	return func(p unsafe.Pointer) any {
		return (*T)(p)
	}
}
