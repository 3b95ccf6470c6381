package lineage

import "testing"

// ---------------------------------------------------------------------------
// Descriptor tests
// ---------------------------------------------------------------------------

func TestDepthLaw(t *testing.T) {
	if d := ObjectClass().Depth(); d != 0 {
		t.Errorf("root depth = %d, want 0", d)
	}
	for _, c := range []*Descriptor{animalClass, dogClass, catClass, puppyClass} {
		if c.Depth() != c.Parent().Depth()+1 {
			t.Errorf("%s depth = %d, want parent depth %d + 1", c, c.Depth(), c.Parent().Depth())
		}
	}
	if puppyClass.Depth() != 3 {
		t.Errorf("Puppy depth = %d, want 3", puppyClass.Depth())
	}
}

func TestRootHasNoParent(t *testing.T) {
	if ObjectClass().Parent() != nil {
		t.Error("root class should have nil parent")
	}
}

func TestDownableChain(t *testing.T) {
	// Everything on Dog's chain, including Dog itself.
	for _, target := range []*Descriptor{dogClass, animalClass, ObjectClass()} {
		if !dogClass.Downable(target) {
			t.Errorf("Dog.Downable(%s) = false, want true", target)
		}
	}
	// Siblings and descendants are not on the chain.
	if dogClass.Downable(catClass) {
		t.Error("Dog.Downable(Cat) = true, want false")
	}
	if animalClass.Downable(dogClass) {
		t.Error("Animal.Downable(Dog) = true, want false")
	}
	if dogClass.Downable(puppyClass) {
		t.Error("Dog.Downable(Puppy) = true, want false")
	}
}

func TestRootDownableSelf(t *testing.T) {
	if !ObjectClass().Downable(ObjectClass()) {
		t.Error("root should be downable to itself")
	}
	if ObjectClass().Downable(animalClass) {
		t.Error("root should not be downable to a descendant")
	}
}

func TestAncestors(t *testing.T) {
	anc := puppyClass.Ancestors()
	want := []*Descriptor{dogClass, animalClass, ObjectClass()}
	if len(anc) != len(want) {
		t.Fatalf("Ancestors() returned %d entries, want %d", len(anc), len(want))
	}
	for i := range want {
		if anc[i] != want[i] {
			t.Errorf("Ancestors()[%d] = %s, want %s", i, anc[i], want[i])
		}
	}
	if len(ObjectClass().Ancestors()) != 0 {
		t.Error("root should have no ancestors")
	}
}

func TestOwnerAt(t *testing.T) {
	tests := []struct {
		class *Descriptor
		depth int
		want  *Descriptor
	}{
		{dogClass, 2, dogClass},       // own level
		{dogClass, 1, dogClass},       // explicit override at Animal level
		{dogClass, 0, ObjectClass()},  // inherited root slot
		{catClass, 1, animalClass},    // no override, Animal's own slot
		{puppyClass, 1, dogClass},     // Dog's override seen through Puppy
		{puppyClass, 2, dogClass},     // Dog's own slot seen through Puppy
		{animalClass, 1, animalClass}, // own level
	}
	for _, tt := range tests {
		if got := tt.class.OwnerAt(tt.depth); got != tt.want {
			t.Errorf("%s.OwnerAt(%d) = %v, want %v", tt.class, tt.depth, got, tt.want)
		}
	}
	if got := animalClass.OwnerAt(2); got != nil {
		t.Errorf("OwnerAt below own depth = %v, want nil", got)
	}
	if got := animalClass.OwnerAt(-1); got != nil {
		t.Errorf("OwnerAt(-1) = %v, want nil", got)
	}
}

func TestClassOf(t *testing.T) {
	if ClassOf[Dog]() != dogClass {
		t.Error("ClassOf[Dog] should return Dog's descriptor")
	}
	if ClassOf[Object]() != ObjectClass() {
		t.Error("ClassOf[Object] should return the root descriptor")
	}
}

func TestDescriptorString(t *testing.T) {
	if s := dogClass.String(); s != "Dog" {
		t.Errorf("String() = %q, want %q", s, "Dog")
	}
}

// ---------------------------------------------------------------------------
// Construction error tests
// ---------------------------------------------------------------------------

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s should panic", name)
		}
	}()
	fn()
}

func TestNewDescriptorNilParentPanics(t *testing.T) {
	mustPanic(t, "NewDescriptor with nil parent", func() {
		NewDescriptor("Orphan", nil, Reinterpret[Animal]())
	})
}

func TestNewDescriptorNilSlotPanics(t *testing.T) {
	mustPanic(t, "NewDescriptor with nil own slot", func() {
		NewDescriptor("Slotless", animalClass, nil)
	})
}

func TestOverrideOffChainPanics(t *testing.T) {
	// Cat is not on a new Dog subclass's chain.
	mustPanic(t, "override targeting a sibling", func() {
		NewDescriptor("Hound", dogClass,
			Reinterpret[Dog](),
			At(catClass, Reinterpret[Dog]()),
		)
	})
}

func TestOverrideBelowOwnDepthPanics(t *testing.T) {
	// Puppy is deeper than Animal's new subclass; not on its chain.
	mustPanic(t, "override targeting a descendant", func() {
		NewDescriptor("Bird", animalClass,
			Reinterpret[Animal](),
			At(puppyClass, Reinterpret[Animal]()),
		)
	})
}
