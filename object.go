package lineage

import "unsafe"

// ---------------------------------------------------------------------------
// Object: the universal root class
// ---------------------------------------------------------------------------

// Object is the root of every hierarchy. Classes embed their parent as
// their first field, so every chain bottoms out in an embedded Object
// at offset zero.
type Object struct{}

// RootView is the trivial dynamic view exposed at the root level. It
// carries no capabilities; it only marks that dispatch reached a valid
// hierarchy object.
type RootView interface{}

// objectClass is the predefined root descriptor: depth 0, no parent,
// a single-slot table reinterpreting the pointer as *Object. The table
// is built inside the var initializer, not an init() function, so
// descriptors declared as package vars in this package see a complete
// root table through var-dependency ordering.
var objectClass = func() *Descriptor {
	d := &Descriptor{
		name:  "Object",
		depth: 0,
	}
	d.table = newTable(d, func(p unsafe.Pointer) any {
		return (*Object)(p)
	}, nil)
	return d
}()

// Class returns the root descriptor. Every derived class shadows this
// method with its own.
func (Object) Class() *Descriptor {
	return objectClass
}

// ObjectClass returns the predefined root descriptor, for use as the
// parent of first-level classes.
func ObjectClass() *Descriptor {
	return objectClass
}
