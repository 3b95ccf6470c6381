// lingen - code generator and layout checker for lineage hierarchies
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/lineage/catalog"
	"github.com/chazu/lineage/dist"
	"github.com/chazu/lineage/gen"
	"github.com/chazu/lineage/manifest"
)

var log = commonlog.GetLogger("lingen")

// errDrift signals that a manifest no longer matches its recorded
// layout. main turns it into a nonzero exit after cleanup has run.
var errDrift = errors.New("hierarchy layout drifted")

func main() {
	manifestPath := flag.String("manifest", "lineage.toml", "Path to the hierarchy manifest")
	out := flag.String("out", "", "Output file for generated code (default: <go-package>_gen.go beside the manifest)")
	snapshot := flag.Bool("snapshot", false, "Record the manifest's layout snapshot in the catalog")
	verify := flag.Bool("verify", false, "Verify the manifest against the latest recorded snapshot")
	history := flag.Bool("history", false, "List recorded snapshots for the manifest's package")
	catalogPath := flag.String("catalog", filepath.Join(".lineage", "catalog.db"), "Path to the snapshot catalog")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lingen [options]\n\n")
		fmt.Fprintf(os.Stderr, "Generates lineage class boilerplate from a lineage.toml manifest and\n")
		fmt.Fprintf(os.Stderr, "tracks layout snapshots to catch hierarchy drift.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lingen                          # Generate code from ./lineage.toml\n")
		fmt.Fprintf(os.Stderr, "  lingen -out zoo_gen.go          # Generate to a specific file\n")
		fmt.Fprintf(os.Stderr, "  lingen -snapshot                # Record the current layout\n")
		fmt.Fprintf(os.Stderr, "  lingen -verify                  # Fail if the layout drifted\n")
		fmt.Fprintf(os.Stderr, "  lingen -history                 # List recorded layouts\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("loaded %s: %d classes", *manifestPath, len(m.Classes))

	switch {
	case *snapshot:
		err = runSnapshot(m, *catalogPath)
	case *verify:
		err = runVerify(m, *catalogPath)
	case *history:
		err = runHistory(m, *catalogPath)
	default:
		err = runGenerate(m, *out)
	}
	if err != nil {
		if !errors.Is(err, errDrift) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runGenerate writes the hierarchy boilerplate for the manifest.
func runGenerate(m *manifest.Manifest, out string) error {
	if out == "" {
		out = filepath.Join(m.Dir, m.Package.GoPackage+"_gen.go")
	}
	if err := gen.WriteFile(m, out); err != nil {
		return err
	}
	fmt.Printf("Generated %s (%d classes)\n", out, len(m.Classes))
	return nil
}

// runSnapshot records the manifest's layout in the catalog.
func runSnapshot(m *manifest.Manifest, catalogPath string) error {
	c, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer c.Close()

	digest, added, err := c.Put(dist.FromManifest(m))
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("Recorded layout %s\n", hex.EncodeToString(digest[:]))
	} else {
		fmt.Printf("Layout %s already recorded\n", hex.EncodeToString(digest[:]))
	}
	return nil
}

// runVerify compares the manifest's layout against the latest recorded
// snapshot and fails on drift.
func runVerify(m *manifest.Manifest, catalogPath string) error {
	c, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer c.Close()

	recorded, recordedDigest, err := c.Latest(m.Package.Name)
	if errors.Is(err, catalog.ErrSnapshotNotFound) {
		return fmt.Errorf("no recorded layout for %s; run lingen -snapshot first", m.Package.Name)
	}
	if err != nil {
		return err
	}

	current := dist.FromManifest(m)
	currentDigest, err := current.Digest()
	if err != nil {
		return err
	}
	if currentDigest == recordedDigest {
		fmt.Printf("Layout unchanged (%s)\n", hex.EncodeToString(currentDigest[:]))
		return nil
	}

	fmt.Fprintf(os.Stderr, "Layout drifted from recorded snapshot %s:\n", hex.EncodeToString(recordedDigest[:]))
	for _, change := range dist.Diff(recorded, current) {
		fmt.Fprintf(os.Stderr, "  %s\n", change)
	}
	return errDrift
}

// runHistory lists recorded layouts for the manifest's package.
func runHistory(m *manifest.Manifest, catalogPath string) error {
	c, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.History(m.Package.Name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No recorded layouts for %s\n", m.Package.Name)
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %s\n", e.TakenAt.Format("2006-01-02 15:04:05"), e.Digest, e.Package)
	}
	return nil
}
