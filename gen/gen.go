// Package gen emits the Go boilerplate the lineage package requires
// for each class in a manifest: the struct with its parent embedded
// first, the view interface and default method bodies, the descriptor
// var with override wiring, and the shadowing Class method.
package gen

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/chazu/lineage/manifest"
)

// lineagePkg is the import path of the core package the generated code
// targets.
const lineagePkg = "github.com/chazu/lineage"

// File generates the complete, formatted Go source for a manifest's
// hierarchy. The manifest is validated first, so callers may pass
// hand-built manifests as well as loaded ones. The output compiles
// against the lineage package without edits.
func File(m *manifest.Manifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	f := jen.NewFilePathName(m.Package.Import, m.Package.GoPackage)
	f.HeaderComment("Code generated by lingen. DO NOT EDIT.")

	for _, c := range m.Sorted() {
		genStruct(f, c)
		genView(f, c)
		genMethods(f, c, m)
		genDescriptor(f, c, m)
		genClassMethod(f, c)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("gen: rendering %s: %w", m.Package.Name, err)
	}

	out, err := imports.Process(m.Package.GoPackage+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("gen: formatting %s: %w", m.Package.Name, err)
	}
	return out, nil
}

// WriteFile generates the hierarchy source and writes it to path.
func WriteFile(m *manifest.Manifest, path string) error {
	src, err := File(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("gen: writing %s: %w", path, err)
	}
	return nil
}

// genStruct declares the class struct. The parent is embedded as the
// first field; that prefix layout is what makes pointer
// reinterpretation between a class and its ancestors valid.
func genStruct(f *jen.File, c *manifest.Class) {
	var parent jen.Code
	if c.Parent == manifest.Root {
		parent = jen.Qual(lineagePkg, "Object")
	} else {
		parent = jen.Id(c.Parent)
	}
	f.Commentf("%s is a hierarchy class under %s.", c.Name, c.Parent)
	f.Type().Id(c.Name).Struct(parent)
}

// genView declares the class's dynamic view interface, if any.
func genView(f *jen.File, c *manifest.Class) {
	if c.View == "" {
		return
	}
	methods := make([]jen.Code, 0, len(c.Methods))
	for _, meth := range c.Methods {
		methods = append(methods, jen.Id(meth.Name).Params().Id(meth.Returns))
	}
	f.Commentf("%s is the dynamic view exposed at the %s level.", c.View, c.Name)
	f.Type().Id(c.View).Interface(methods...)
}

// genMethods declares the class's own method bodies and its override
// method bodies.
func genMethods(f *jen.File, c *manifest.Class, m *manifest.Manifest) {
	recv := jen.Id("c").Op("*").Id(c.Name)
	for _, meth := range c.Methods {
		f.Func().Params(recv.Clone()).Id(meth.Name).Params().Id(meth.Returns).Block(
			jen.Return(resultExpr(meth.Default, meth.Returns)),
		)
	}
	for _, ov := range c.Overrides {
		inherited := m.MethodAt(ov.At, ov.Method)
		f.Func().Params(recv.Clone()).Id(ov.Method).Params().Id(inherited.Returns).Block(
			jen.Return(resultExpr(ov.Value, inherited.Returns)),
		)
	}
}

// genDescriptor declares the package-level descriptor var, wiring one
// table override per distinct overridden level.
func genDescriptor(f *jen.File, c *manifest.Class, m *manifest.Manifest) {
	args := []jen.Code{
		jen.Lit(c.Name),
		parentDescriptor(c.Parent),
		reinterpret(c.Name),
	}
	for _, level := range overriddenLevels(c) {
		args = append(args, jen.Qual(lineagePkg, "At").Call(
			jen.Id(level+"Class"),
			reinterpret(c.Name),
		))
	}
	f.Var().Id(c.Name+"Class").Op("=").Qual(lineagePkg, "NewDescriptor").Call(args...)
}

// genClassMethod declares the Class identity method. Every class
// shadows the method promoted from its embedded parent; a missing
// shadow would bind handles to the wrong concrete class.
func genClassMethod(f *jen.File, c *manifest.Class) {
	f.Func().Params(jen.Id(c.Name)).Id("Class").Params().Op("*").Qual(lineagePkg, "Descriptor").Block(
		jen.Return(jen.Id(c.Name + "Class")),
	)
}

// overriddenLevels returns the distinct ancestor levels the class
// overrides, in declaration order. Several method overrides at the same
// level share one table slot.
func overriddenLevels(c *manifest.Class) []string {
	var levels []string
	seen := make(map[string]bool)
	for _, ov := range c.Overrides {
		if !seen[ov.At] {
			seen[ov.At] = true
			levels = append(levels, ov.At)
		}
	}
	return levels
}

// parentDescriptor returns the expression locating the parent's
// descriptor.
func parentDescriptor(parent string) jen.Code {
	if parent == manifest.Root {
		return jen.Qual(lineagePkg, "ObjectClass").Call()
	}
	return jen.Id(parent + "Class")
}

// reinterpret returns a lineage.Reinterpret[T]() call.
func reinterpret(class string) jen.Code {
	return jen.Qual(lineagePkg, "Reinterpret").Index(jen.Id(class)).Call()
}

// resultExpr renders a method result: the manifest's Go expression if
// given, otherwise the return type's zero value.
func resultExpr(expr, returns string) jen.Code {
	if expr != "" {
		return jen.Id(expr)
	}
	return jen.Op("*").New(jen.Id(returns))
}
