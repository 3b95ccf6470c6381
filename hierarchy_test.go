package lineage

// Test hierarchy: Object <- Animal <- {Dog <- Puppy, Cat}.
//
// Dog overrides the Animal-level view; Cat defines its own Sound method
// but installs no override, so Animal-level dispatch on a Cat still
// sees the default. Puppy adds a level with no overrides of its own.

type Animal struct {
	Object
	name string
}

// AnimalView is the dynamic view exposed at the Animal level.
type AnimalView interface {
	Sound() string
}

func (a *Animal) Sound() string { return "generic sound" }

var animalClass = NewDescriptor("Animal", ObjectClass(), Reinterpret[Animal]())

func (Animal) Class() *Descriptor { return animalClass }

type Dog struct {
	Animal
	fetches int
}

func (d *Dog) Sound() string { return "bark" }

var dogClass = NewDescriptor("Dog", animalClass,
	Reinterpret[Dog](),
	At(animalClass, Reinterpret[Dog]()),
)

func (Dog) Class() *Descriptor { return dogClass }

type Cat struct {
	Animal
}

func (c *Cat) Sound() string { return "meow" }

var catClass = NewDescriptor("Cat", animalClass, Reinterpret[Cat]())

func (Cat) Class() *Descriptor { return catClass }

type Puppy struct {
	Dog
}

var puppyClass = NewDescriptor("Puppy", dogClass, Reinterpret[Puppy]())

func (Puppy) Class() *Descriptor { return puppyClass }
