package dist

import (
	"testing"

	"github.com/chazu/lineage"
	"github.com/chazu/lineage/manifest"
)

// Live fixture mirroring testManifest below: Object <- Animal <- {Dog, Cat},
// Dog overriding the Animal level.

type Animal struct {
	lineage.Object
}

func (a *Animal) Sound() string { return "generic sound" }

var animalClass = lineage.NewDescriptor("Animal", lineage.ObjectClass(), lineage.Reinterpret[Animal]())

func (Animal) Class() *lineage.Descriptor { return animalClass }

type Dog struct {
	Animal
}

func (d *Dog) Sound() string { return "bark" }

var dogClass = lineage.NewDescriptor("Dog", animalClass,
	lineage.Reinterpret[Dog](),
	lineage.At(animalClass, lineage.Reinterpret[Dog]()),
)

func (Dog) Class() *lineage.Descriptor { return dogClass }

type Cat struct {
	Animal
}

var catClass = lineage.NewDescriptor("Cat", animalClass, lineage.Reinterpret[Cat]())

func (Cat) Class() *lineage.Descriptor { return catClass }

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m := &manifest.Manifest{
		Package: manifest.Package{Name: "zoo"},
		Classes: []manifest.Class{
			{
				Name:   "Animal",
				Parent: manifest.Root,
				Methods: []manifest.Method{
					{Name: "Sound", Returns: "string", Default: `"generic sound"`},
				},
			},
			{
				Name:   "Dog",
				Parent: "Animal",
				Overrides: []manifest.Override{
					{At: "Animal", Method: "Sound", Value: `"bark"`},
				},
			},
			{Name: "Cat", Parent: "Animal"},
		},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("fixture manifest invalid: %v", err)
	}
	return m
}

func TestCapture(t *testing.T) {
	s := Capture("zoo", dogClass, catClass)

	if len(s.Classes) != 3 {
		t.Fatalf("captured %d classes, want 3 (ancestors included, root excluded)", len(s.Classes))
	}
	if s.Classes[0].Name != "Animal" {
		t.Errorf("first class = %s, want Animal (depth order)", s.Classes[0].Name)
	}

	dog := s.Lookup("Dog")
	if dog == nil {
		t.Fatal("Dog record missing")
	}
	if dog.Depth != 2 || dog.Parent != "Animal" {
		t.Errorf("Dog record = %+v", dog)
	}
	if len(dog.Slots) != 3 {
		t.Fatalf("Dog has %d slots, want 3", len(dog.Slots))
	}
	// Own level, overridden Animal level, inherited root level.
	checks := []SlotRecord{
		{Depth: 2, Owner: "Dog", Override: false},
		{Depth: 1, Owner: "Dog", Override: true},
		{Depth: 0, Owner: "Object", Override: false},
	}
	for i, want := range checks {
		if dog.Slots[i] != want {
			t.Errorf("Dog slot %d = %+v, want %+v", i, dog.Slots[i], want)
		}
	}

	cat := s.Lookup("Cat")
	if cat.Slots[1].Owner != "Animal" || cat.Slots[1].Override {
		t.Errorf("Cat Animal-level slot = %+v, want Animal-owned default", cat.Slots[1])
	}
}

func TestFromManifestMatchesCapture(t *testing.T) {
	live := Capture("zoo", dogClass, catClass)
	declared := FromManifest(testManifest(t))

	ld, err := live.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	dd, err := declared.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if ld != dd {
		t.Errorf("live and declared digests differ:\nlive:     %+v\ndeclared: %+v", live, declared)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a, err := Capture("zoo", dogClass, catClass).Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := Capture("zoo", dogClass, catClass).Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if a != b {
		t.Error("digests of identical captures differ")
	}
}

func TestDigestSensitivity(t *testing.T) {
	base, err := FromManifest(testManifest(t)).Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}

	m := testManifest(t)
	m.Classes[1].Overrides = nil // drop Dog's override
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	changed, err := FromManifest(m).Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if base == changed {
		t.Error("removing an override should change the digest")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := Capture("zoo", dogClass, catClass)
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	d1, _ := s.Digest()
	d2, _ := back.Digest()
	if d1 != d2 {
		t.Error("round trip changed the snapshot digest")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("not cbor at all")); err == nil {
		t.Error("Unmarshal of garbage should fail")
	}
}

func TestDiff(t *testing.T) {
	old := FromManifest(testManifest(t))

	m := testManifest(t)
	m.Classes[1].Overrides = nil
	m.Classes = append(m.Classes, manifest.Class{Name: "Puppy", Parent: "Dog"})
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	changes := Diff(old, FromManifest(m))

	byClass := make(map[string]string)
	for _, c := range changes {
		byClass[c.Class] = c.Detail
	}
	if _, ok := byClass["Puppy"]; !ok {
		t.Error("Diff should report the added Puppy class")
	}
	if detail, ok := byClass["Dog"]; !ok {
		t.Error("Diff should report Dog's changed slot")
	} else if detail == "" {
		t.Error("Dog change should carry a detail")
	}

	if len(Diff(old, old)) != 0 {
		t.Error("Diff of identical snapshots should be empty")
	}
}
