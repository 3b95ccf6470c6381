// Package dist captures hierarchy layout snapshots for drift
// detection.
//
// A snapshot records, for every class, its chain position and the
// provenance of every dispatch-table slot: which class supplied the
// view converter serving each level. Snapshots are content-addressed
// by a sha256 digest over their canonical CBOR encoding, so two equal
// layouts always hash the same and any change to depth, parentage, or
// override placement changes the digest.
package dist

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/chazu/lineage"
	"github.com/chazu/lineage/manifest"
)

// Snapshot is the serializable layout of one hierarchy. Classes are
// sorted by depth, then name; the implicit root is not recorded as a
// class but still appears as the owner of every depth-0 slot.
type Snapshot struct {
	Package string        `cbor:"package"`
	Classes []ClassRecord `cbor:"classes"`
}

// ClassRecord is the layout of one class.
type ClassRecord struct {
	Name   string       `cbor:"name"`
	Parent string       `cbor:"parent"`
	Depth  int          `cbor:"depth"`
	Slots  []SlotRecord `cbor:"slots"`
}

// SlotRecord is the provenance of one dispatch-table slot, own level
// first.
type SlotRecord struct {
	// Depth is the hierarchy level this slot serves.
	Depth int `cbor:"depth"`
	// Owner is the class whose declaration supplied the slot's
	// converter.
	Owner string `cbor:"owner"`
	// Override is true when the owner is deeper than the level it
	// serves.
	Override bool `cbor:"override"`
}

// Capture walks live descriptors into a snapshot. Ancestors of the
// given descriptors are included automatically, so passing the leaves
// of a hierarchy captures all of it.
func Capture(pkg string, descs ...*lineage.Descriptor) *Snapshot {
	seen := make(map[*lineage.Descriptor]bool)
	var all []*lineage.Descriptor
	for _, d := range descs {
		for c := d; c != nil; c = c.Parent() {
			if seen[c] || c.Depth() == 0 {
				seen[c] = true
				continue
			}
			seen[c] = true
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Depth() != all[j].Depth() {
			return all[i].Depth() < all[j].Depth()
		}
		return all[i].Name() < all[j].Name()
	})

	s := &Snapshot{Package: pkg}
	for _, d := range all {
		rec := ClassRecord{
			Name:   d.Name(),
			Parent: d.Parent().Name(),
			Depth:  d.Depth(),
		}
		for level := d.Depth(); level >= 0; level-- {
			owner := d.OwnerAt(level)
			rec.Slots = append(rec.Slots, SlotRecord{
				Depth:    level,
				Owner:    owner.Name(),
				Override: owner.Depth() != level,
			})
		}
		s.Classes = append(s.Classes, rec)
	}
	return s
}

// FromManifest builds the snapshot a manifest's hierarchy would have
// once generated and loaded. For equal layouts, FromManifest and
// Capture produce identical snapshots, which is what lets a stored
// manifest digest vouch for live code.
func FromManifest(m *manifest.Manifest) *Snapshot {
	classes := m.Sorted()
	sort.SliceStable(classes, func(i, j int) bool {
		di, dj := m.DepthOf(classes[i].Name), m.DepthOf(classes[j].Name)
		if di != dj {
			return di < dj
		}
		return classes[i].Name < classes[j].Name
	})

	s := &Snapshot{Package: m.Package.Name}
	for _, c := range classes {
		depth := m.DepthOf(c.Name)
		chain := m.Chain(c.Name)
		rec := ClassRecord{
			Name:   c.Name,
			Parent: c.Parent,
			Depth:  depth,
		}
		for level := depth; level >= 0; level-- {
			owner := ownerAt(m, chain, depth, level)
			rec.Slots = append(rec.Slots, SlotRecord{
				Depth:    level,
				Owner:    owner,
				Override: owner != chain[depth-level],
			})
		}
		s.Classes = append(s.Classes, rec)
	}
	return s
}

// ownerAt resolves slot provenance from declarations: the nearest
// class at or below the chain's head that overrides the level, or the
// level's declaring class if none does.
func ownerAt(m *manifest.Manifest, chain []string, depth, level int) string {
	levelName := chain[depth-level]
	for _, name := range chain[:depth-level] {
		c := m.Lookup(name)
		if c == nil {
			continue
		}
		for _, ov := range c.Overrides {
			if ov.At == levelName {
				return name
			}
		}
	}
	return levelName
}

// Digest returns the sha256 content hash of the snapshot's canonical
// encoding.
func (s *Snapshot) Digest() ([32]byte, error) {
	data, err := Marshal(s)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Lookup finds a class record by name, or nil.
func (s *Snapshot) Lookup(name string) *ClassRecord {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i]
		}
	}
	return nil
}

// Change describes one difference between two snapshots.
type Change struct {
	Class  string
	Detail string
}

// String implements the Stringer interface.
func (c Change) String() string {
	return fmt.Sprintf("%s: %s", c.Class, c.Detail)
}

// Diff reports the per-class differences from old to new.
func Diff(old, new *Snapshot) []Change {
	var changes []Change
	for i := range old.Classes {
		oc := &old.Classes[i]
		nc := new.Lookup(oc.Name)
		if nc == nil {
			changes = append(changes, Change{oc.Name, "removed"})
			continue
		}
		if d := classDiff(oc, nc); d != "" {
			changes = append(changes, Change{oc.Name, d})
		}
	}
	for i := range new.Classes {
		if old.Lookup(new.Classes[i].Name) == nil {
			changes = append(changes, Change{new.Classes[i].Name, "added"})
		}
	}
	return changes
}

func classDiff(old, new *ClassRecord) string {
	if old.Parent != new.Parent {
		return fmt.Sprintf("parent changed from %s to %s", old.Parent, new.Parent)
	}
	if old.Depth != new.Depth {
		return fmt.Sprintf("depth changed from %d to %d", old.Depth, new.Depth)
	}
	for i := range old.Slots {
		if i >= len(new.Slots) {
			break
		}
		os, ns := old.Slots[i], new.Slots[i]
		if os.Owner != ns.Owner || os.Override != ns.Override {
			return fmt.Sprintf("slot for depth %d changed owner from %s to %s", os.Depth, os.Owner, ns.Owner)
		}
	}
	return ""
}
