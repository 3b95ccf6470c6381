package lineage

// ---------------------------------------------------------------------------
// Kind: ownership discipline for wrapped pointers
// ---------------------------------------------------------------------------

// Kind classifies how a Handle holds its underlying object.
//
// The kind is fixed at construction and carried unchanged across every
// cast, so a shared borrow can never be laundered into an owning or
// exclusive handle. The package does no locking of its own: aliasing
// discipline between handles of the same object is the caller's
// responsibility, exactly as it is for the raw pointers they wrap.
type Kind uint8

const (
	// Owned handles are responsible for releasing the object,
	// exactly once, via Release.
	Owned Kind = iota

	// Shared handles borrow the object read-only. Any number of
	// shared handles may alias the same object concurrently.
	Shared

	// Exclusive handles borrow the object for mutation. An exclusive
	// handle must not alias any other live handle of the same object.
	Exclusive
)

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case Owned:
		return "owned"
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	}
	return "invalid"
}

// exclusiveCapable reports whether a handle of this kind may hand out
// mutable access to its object.
func (k Kind) exclusiveCapable() bool {
	return k == Owned || k == Exclusive
}
