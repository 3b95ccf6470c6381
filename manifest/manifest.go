// Package manifest handles lineage.toml hierarchy definitions.
//
// A manifest declares the classes of one single-inheritance hierarchy:
// each class's parent (chains bottom out at the implicit root Object),
// the view interface it exposes for dispatch, and any overrides it
// installs at ancestor levels. The lingen tool turns a validated
// manifest into the Go boilerplate the lineage package requires.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Root is the name of the implicit universal root class.
const Root = "Object"

// Manifest represents a lineage.toml hierarchy definition.
type Manifest struct {
	Package Package `toml:"package"`
	Classes []Class `toml:"class"`

	// Dir is the directory containing the lineage.toml file (set at
	// load time).
	Dir string `toml:"-"`

	byName map[string]*Class
}

// Package contains output metadata for the generated code.
type Package struct {
	Name      string `toml:"name"`
	GoPackage string `toml:"go-package"`
	Import    string `toml:"import"`
}

// Class declares one class in the hierarchy.
type Class struct {
	Name      string     `toml:"name"`
	Parent    string     `toml:"parent"`
	View      string     `toml:"view"`
	Methods   []Method   `toml:"method"`
	Overrides []Override `toml:"override"`
}

// Method declares one zero-argument view method.
type Method struct {
	Name    string `toml:"name"`
	Returns string `toml:"returns"`
	// Default is a Go expression for the method's result on the
	// declaring class. Empty means the zero value.
	Default string `toml:"default"`
}

// Override redeclares an inherited method and installs a view-converter
// override at the named ancestor level.
type Override struct {
	At     string `toml:"at"`
	Method string `toml:"method"`
	// Value is a Go expression for the overriding method's result.
	Value string `toml:"value"`
}

// Load parses and validates a lineage.toml file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if m.Package.GoPackage == "" {
		m.Package.GoPackage = m.Package.Name
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest's structural invariants: unique class
// names, resolvable parents, acyclic chains, override targets on the
// declaring class's chain, and exported Go identifiers throughout.
func (m *Manifest) Validate() error {
	if m.Package.Name == "" {
		return fmt.Errorf("manifest: package name is required")
	}

	m.byName = make(map[string]*Class, len(m.Classes))
	for i := range m.Classes {
		c := &m.Classes[i]
		if c.Name == Root {
			return fmt.Errorf("manifest: class name %s is reserved for the root", Root)
		}
		if !isExportedIdent(c.Name) {
			return fmt.Errorf("manifest: class name %q is not an exported Go identifier", c.Name)
		}
		if _, dup := m.byName[c.Name]; dup {
			return fmt.Errorf("manifest: duplicate class %s", c.Name)
		}
		m.byName[c.Name] = c
	}

	for i := range m.Classes {
		c := &m.Classes[i]
		if c.Parent == "" {
			return fmt.Errorf("manifest: class %s has no parent", c.Name)
		}
		if c.Parent != Root {
			if _, ok := m.byName[c.Parent]; !ok {
				return fmt.Errorf("manifest: class %s has unknown parent %s", c.Name, c.Parent)
			}
		}
		if c.View != "" && !isExportedIdent(c.View) {
			return fmt.Errorf("manifest: class %s view %q is not an exported Go identifier", c.Name, c.View)
		}
		for _, meth := range c.Methods {
			if !isExportedIdent(meth.Name) {
				return fmt.Errorf("manifest: class %s method %q is not an exported Go identifier", c.Name, meth.Name)
			}
			if meth.Returns == "" {
				return fmt.Errorf("manifest: class %s method %s has no return type", c.Name, meth.Name)
			}
		}
	}

	// Chain walks double as cycle detection: a cycle never reaches
	// the root.
	for i := range m.Classes {
		if _, err := m.chain(m.Classes[i].Name); err != nil {
			return err
		}
	}

	for i := range m.Classes {
		c := &m.Classes[i]
		chain, _ := m.chain(c.Name)
		onChain := make(map[string]bool, len(chain))
		for _, name := range chain {
			onChain[name] = true
		}
		for _, ov := range c.Overrides {
			if ov.At == c.Name {
				return fmt.Errorf("manifest: class %s overrides itself; declare the method instead", c.Name)
			}
			if !onChain[ov.At] || ov.At == Root {
				return fmt.Errorf("manifest: class %s override target %s is not an ancestor", c.Name, ov.At)
			}
			if m.methodAt(ov.At, ov.Method) == nil {
				return fmt.Errorf("manifest: class %s overrides unknown method %s.%s", c.Name, ov.At, ov.Method)
			}
		}
	}

	return nil
}

// Lookup finds a class declaration by name. Returns nil for unknown
// names and for the implicit root.
func (m *Manifest) Lookup(name string) *Class {
	return m.byName[name]
}

// Chain returns the class's chain from itself up to and including the
// root.
func (m *Manifest) Chain(name string) []string {
	chain, err := m.chain(name)
	if err != nil {
		return nil
	}
	return chain
}

// DepthOf returns the inheritance depth of a class (the root is 0), or
// -1 for unknown names.
func (m *Manifest) DepthOf(name string) int {
	if name == Root {
		return 0
	}
	chain, err := m.chain(name)
	if err != nil {
		return -1
	}
	return len(chain) - 1
}

// Sorted returns the class declarations ordered parents before
// children, so generated descriptor vars initialize in dependency
// order. Classes of equal depth keep their manifest order.
func (m *Manifest) Sorted() []*Class {
	result := make([]*Class, 0, len(m.Classes))
	for i := range m.Classes {
		result = append(result, &m.Classes[i])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return m.DepthOf(result[i].Name) < m.DepthOf(result[j].Name)
	})
	return result
}

// MethodAt returns the named method declared by the named class, or
// nil.
func (m *Manifest) MethodAt(class, method string) *Method {
	return m.methodAt(class, method)
}

func (m *Manifest) methodAt(class, method string) *Method {
	c := m.byName[class]
	if c == nil {
		return nil
	}
	for i := range c.Methods {
		if c.Methods[i].Name == method {
			return &c.Methods[i]
		}
	}
	return nil
}

// chain walks the parent edges from name to the root, failing on
// unknown parents and on cycles.
func (m *Manifest) chain(name string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for current := name; ; {
		if seen[current] {
			return nil, fmt.Errorf("manifest: class %s is part of an inheritance cycle", name)
		}
		seen[current] = true
		chain = append(chain, current)
		if current == Root {
			return chain, nil
		}
		c := m.byName[current]
		if c == nil {
			return nil, fmt.Errorf("manifest: class %s has unknown ancestor %s", name, current)
		}
		current = c.Parent
	}
}

// isExportedIdent reports whether s is a valid exported Go identifier.
func isExportedIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
