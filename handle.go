package lineage

import (
	"fmt"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Handle: pointer + concrete class descriptor
// ---------------------------------------------------------------------------

// Handle couples a pointer to a hierarchy object with the descriptor of
// the object's concrete class.
//
// The descriptor is captured once, at construction, from the static
// type the handle was built from, and never changes afterwards. Upcasts
// narrow only the handle's static type parameter; the descriptor keeps
// naming the true concrete class, which is what lets a widened handle
// be downcast back along its true chain and lets dispatch find the
// concrete class's table no matter how far the handle was upcast.
//
// Handles are consumed by Upcast, successful Downcast, IntoRaw, and
// Release. Using a consumed handle panics.
type Handle[T Member] struct {
	ptr     unsafe.Pointer
	kind    Kind
	info    *Descriptor
	release func()
}

// New wraps obj in an owned handle with no release action. The
// descriptor binds to T, so obj must be a T proper, not an embedded
// ancestor field of some deeper class; wrapping an already-upcast
// pointer silently mislabels the concrete class and breaks every later
// downcast.
func New[T Member](obj *T) Handle[T] {
	return Handle[T]{
		ptr:  unsafe.Pointer(obj),
		kind: Owned,
		info: ClassOf[T](),
	}
}

// NewOwned wraps obj in an owned handle whose Release runs the given
// release action exactly once. Casts carry the action along with
// ownership.
func NewOwned[T Member](obj *T, release func()) Handle[T] {
	return Handle[T]{
		ptr:     unsafe.Pointer(obj),
		kind:    Owned,
		info:    ClassOf[T](),
		release: release,
	}
}

// Borrow wraps obj in a shared borrowing handle. The caller keeps
// ownership of obj and must keep it alive for the handle's lifetime.
func Borrow[T Member](obj *T) Handle[T] {
	return Handle[T]{
		ptr:  unsafe.Pointer(obj),
		kind: Shared,
		info: ClassOf[T](),
	}
}

// BorrowMut wraps obj in an exclusive borrowing handle. No other live
// handle may alias obj while this one exists; that discipline is the
// caller's to uphold, as it is for the raw pointer itself.
func BorrowMut[T Member](obj *T) Handle[T] {
	return Handle[T]{
		ptr:  unsafe.Pointer(obj),
		kind: Exclusive,
		info: ClassOf[T](),
	}
}

// FromRaw rebuilds a handle from a raw pointer previously produced by
// IntoRaw, or from any pointer the caller can vouch for. The caller
// must guarantee that p addresses a valid, live T whose concrete class
// really is T, and that the aliasing discipline implied by kind holds.
// Violating these is undefined behavior, not a recoverable error.
func FromRaw[T Member](p unsafe.Pointer, kind Kind, release func()) Handle[T] {
	return Handle[T]{
		ptr:     p,
		kind:    kind,
		info:    ClassOf[T](),
		release: release,
	}
}

// IntoRaw consumes the handle and returns the raw pointer, the
// ownership kind, and the pending release action (nil unless the
// handle was built with NewOwned). Release responsibility transfers to
// the caller.
func (h *Handle[T]) IntoRaw() (unsafe.Pointer, Kind, func()) {
	h.mustLive()
	p, k, rel := h.ptr, h.kind, h.release
	*h = Handle[T]{}
	return p, k, rel
}

// Valid reports whether the handle still holds an object, i.e. has not
// been consumed or released.
func (h Handle[T]) Valid() bool {
	return h.ptr != nil
}

// Get returns the object at the handle's static type.
func (h Handle[T]) Get() *T {
	h.mustLive()
	return (*T)(h.ptr)
}

// Kind returns the handle's ownership kind.
func (h Handle[T]) Kind() Kind {
	return h.kind
}

// Class returns the descriptor of the object's concrete class. This is
// the class the handle was constructed from, independent of any
// upcasts since.
func (h Handle[T]) Class() *Descriptor {
	return h.info
}

// Release destroys the handle. For owned handles built with NewOwned
// the release action runs; borrowing handles are merely invalidated.
// Releasing an already-consumed handle is a no-op, so the action runs
// at most once no matter how the handle leaves scope.
func (h *Handle[T]) Release() {
	if h.ptr == nil {
		return
	}
	rel := h.release
	*h = Handle[T]{}
	if rel != nil {
		rel()
	}
}

// mustLive panics if the handle was consumed.
func (h Handle[T]) mustLive() {
	if h.ptr == nil {
		panic("lineage: use of consumed handle")
	}
}

// ---------------------------------------------------------------------------
// Casts
// ---------------------------------------------------------------------------

// Upcast converts a handle to an ancestor class. To must lie on From's
// static chain; that relation is checked once against the static
// descriptors and a violation panics, since it is a programming error
// at the call site, not a property of the runtime object. Given the
// relation, the cast itself cannot fail: the pointer and descriptor are
// carried over untouched and the source handle is consumed.
func Upcast[To Member, From Member](h *Handle[From]) Handle[To] {
	from, to := ClassOf[From](), ClassOf[To]()
	if !from.Downable(to) {
		panic(fmt.Sprintf("lineage: cannot upcast %s to %s: not an ancestor", from, to))
	}
	h.mustLive()
	out := Handle[To]{ptr: h.ptr, kind: h.kind, info: h.info, release: h.release}
	*h = Handle[From]{}
	return out
}

// Downcast converts a handle back toward a more specific class. From
// must lie on To's static chain (the target could upcast back), which
// is checked like Upcast's relation and panics when violated. The cast
// then succeeds iff To lies on the concrete class's chain. On success
// the source is consumed and the retyped handle keeps the same pointer,
// kind, descriptor, and release action. On failure the source handle is
// left untouched: no partial state, no leak.
func Downcast[To Member, From Member](h *Handle[From]) (Handle[To], bool) {
	from, to := ClassOf[From](), ClassOf[To]()
	if !to.Downable(from) {
		panic(fmt.Sprintf("lineage: cannot downcast %s to %s: no chain between them", from, to))
	}
	h.mustLive()
	if !h.info.Downable(to) {
		return Handle[To]{}, false
	}
	out := Handle[To]{ptr: h.ptr, kind: h.kind, info: h.info, release: h.release}
	*h = Handle[From]{}
	return out, true
}

// DowncastRef performs the same check as Downcast but does not consume
// the source: on success it returns a new shared handle aliased to the
// same object. On failure no handle is produced and the source is
// untouched.
func DowncastRef[To Member, From Member](h *Handle[From]) (Handle[To], bool) {
	from, to := ClassOf[From](), ClassOf[To]()
	if !to.Downable(from) {
		panic(fmt.Sprintf("lineage: cannot downcast %s to %s: no chain between them", from, to))
	}
	h.mustLive()
	if !h.info.Downable(to) {
		return Handle[To]{}, false
	}
	return Handle[To]{ptr: h.ptr, kind: Shared, info: h.info}, true
}

// DowncastMut is DowncastRef's exclusive counterpart: the source must
// be exclusive-capable (owned or exclusive), and the borrowed handle
// must not be aliased while it lives.
func DowncastMut[To Member, From Member](h *Handle[From]) (Handle[To], bool) {
	from, to := ClassOf[From](), ClassOf[To]()
	if !to.Downable(from) {
		panic(fmt.Sprintf("lineage: cannot downcast %s to %s: no chain between them", from, to))
	}
	h.mustLive()
	if !h.kind.exclusiveCapable() {
		panic("lineage: exclusive downcast through a shared handle")
	}
	if !h.info.Downable(to) {
		return Handle[To]{}, false
	}
	return Handle[To]{ptr: h.ptr, kind: Exclusive, info: h.info}, true
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// View returns the dynamic view for the handle's current static level.
//
// The slot is read from the concrete class's table, located through the
// descriptor, at the offset between the concrete depth and the static
// depth. Suffix containment guarantees the offset lands on the content
// the static level declared, or on the replacement installed by the
// nearest overriding descendant, which is how an operation written
// against an ancestor's view observes derived behavior.
func (h Handle[T]) View() any {
	h.mustLive()
	offset := h.info.depth - ClassOf[T]().depth
	return h.info.table.slot(offset)(h.ptr)
}

// ViewMut returns the dynamic view for mutation. The handle must be
// exclusive-capable; asking for mutable access through a shared handle
// is a discipline violation and panics.
func (h Handle[T]) ViewMut() any {
	if !h.kind.exclusiveCapable() {
		panic("lineage: mutable view through a shared handle")
	}
	return h.View()
}
