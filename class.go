package lineage

import "fmt"

// ---------------------------------------------------------------------------
// Descriptor: static per-class record
// ---------------------------------------------------------------------------

// Descriptor is the immutable record identifying one class: its position
// in the parent chain and the address of its dispatch table. Exactly one
// descriptor exists per class for the life of the process, so descriptor
// addresses double as type identity.
type Descriptor struct {
	name   string
	parent *Descriptor
	depth  int
	table  *Table
}

// Member is implemented by every struct that participates in a
// hierarchy. The method must be declared on the class itself, with a
// value receiver, returning the class's own package-level descriptor;
// it must not be inherited through embedding.
type Member interface {
	Class() *Descriptor
}

// ClassOf returns the static descriptor for class T.
func ClassOf[T Member]() *Descriptor {
	var zero T
	return zero.Class()
}

// Name returns the class name.
func (d *Descriptor) Name() string {
	return d.name
}

// Depth returns the inheritance depth (0 for the root).
func (d *Descriptor) Depth() int {
	return d.depth
}

// Parent returns the parent class descriptor, or nil for the root.
func (d *Descriptor) Parent() *Descriptor {
	return d.parent
}

// Downable reports whether target lies on this class's chain, from the
// class itself up to the root. This is the runtime test gating every
// downcast: a handle whose concrete class is d may be downcast to
// exactly the classes d.Downable accepts.
func (d *Descriptor) Downable(target *Descriptor) bool {
	for c := d; c != nil; c = c.parent {
		if c == target {
			return true
		}
	}
	return false
}

// Ancestors returns all ancestor descriptors from immediate parent to
// root.
func (d *Descriptor) Ancestors() []*Descriptor {
	var result []*Descriptor
	for c := d.parent; c != nil; c = c.parent {
		result = append(result, c)
	}
	return result
}

// OwnerAt returns the class whose declaration supplied the view
// converter serving the given depth, or nil if the depth is outside
// this class's chain. The owner is the class itself for its own level
// and for any level it overrides; otherwise it is the owner recorded by
// the nearest overriding descendant at or below this class, falling
// back to the level's declaring class.
func (d *Descriptor) OwnerAt(depth int) *Descriptor {
	offset := d.depth - depth
	if offset < 0 || offset >= d.table.Len() {
		return nil
	}
	return d.table.owners[offset]
}

// String implements the Stringer interface.
func (d *Descriptor) String() string {
	return d.name
}

// ---------------------------------------------------------------------------
// Descriptor construction
// ---------------------------------------------------------------------------

// Override names a replacement view converter for one ancestor level,
// identified by that level's descriptor.
type Override struct {
	target *Descriptor
	fn     Slot
}

// At builds an Override installing fn as the view converter for the
// level declared by target.
func At(target *Descriptor, fn Slot) Override {
	return Override{target: target, fn: fn}
}

// NewDescriptor creates the descriptor for a new class under parent.
//
// The own converter produces the class's own-level view; Reinterpret
// supplies the default. The table is the parent's full table with the
// own converter prefixed, then each override is written at the offset
// computed from its target's depth. Override targets must lie on the
// new class's chain; anything else is a construction error and panics.
//
// Descriptors are intended to be package-level vars, so the hierarchy
// is fixed at program start. The root descriptor is predefined; see
// ObjectClass.
func NewDescriptor(name string, parent *Descriptor, own Slot, overrides ...Override) *Descriptor {
	if parent == nil {
		panic("lineage: class " + name + " has no parent; the root Object is predefined")
	}
	if own == nil {
		panic("lineage: class " + name + " has no own-level converter")
	}
	d := &Descriptor{
		name:   name,
		parent: parent,
		depth:  parent.depth + 1,
	}
	d.table = newTable(d, own, parent.table)
	for _, ov := range overrides {
		if ov.target == nil || ov.fn == nil {
			panic("lineage: class " + name + " has an incomplete override")
		}
		if !d.Downable(ov.target) {
			panic(fmt.Sprintf("lineage: class %s cannot override level %s: not on its chain", name, ov.target.name))
		}
		d.table.override(d, d.depth-ov.target.depth, ov.fn)
	}
	return d
}
