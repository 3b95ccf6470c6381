// Package lineage implements single-inheritance class hierarchies over
// plain Go structs, with free upcasts, runtime-checked downcasts, and
// per-level virtual dispatch.
//
// This package contains:
//   - Ownership kinds for pointers wrapped in handles
//   - Immutable per-class descriptors (depth, chain membership, table)
//   - Layered dispatch tables with per-level override support
//   - The Handle type tying ownership, casting, and dispatch together
//
// Every participating struct embeds its parent as its first field, so a
// pointer to a derived struct is layout-compatible with every ancestor.
// Each class must also declare its own Class method returning its own
// descriptor; a class that relies on the promoted method of an embedded
// parent will bind handles to the wrong concrete class. The lingen tool
// generates this boilerplate from a lineage.toml manifest.
package lineage
