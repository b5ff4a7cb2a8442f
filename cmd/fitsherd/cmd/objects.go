package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitsherd/fitsherd/internal/objects"
	"github.com/fitsherd/fitsherd/internal/output"
)

func newObjectsCmd() *cobra.Command {
	var list string
	var catalog string
	var radius float64
	var suffix string
	var overwrite bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "objects [directory]",
		Short: "Assign object names from the night's observing log",
		Long: `Match images that have pointing information but no OBJECT keyword
against the objects named in the directory's observing log, and write
the OBJECT keyword into the matches.

Object positions come from a local catalog file; there is no network
name resolution.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObjects(cmd, argDir(args), objectsFlags{
				list: list, catalog: catalog, radius: radius,
				suffix: suffix, overwrite: overwrite, dryRun: dryRun,
			})
		},
	}

	cmd.Flags().StringVar(&list, "list", "",
		"observing log file name (default from config)")
	cmd.Flags().StringVar(&catalog, "catalog", "",
		"object catalog file (default from config)")
	cmd.Flags().Float64Var(&radius, "radius", 0,
		"match radius in arcminutes (default from config)")
	cmd.Flags().StringVar(&suffix, "suffix", "",
		"suffix inserted before the extension of output copies (default from config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false,
		"replace the input files instead of writing copies")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"match but write nothing")

	return cmd
}

type objectsFlags struct {
	list      string
	catalog   string
	radius    float64
	suffix    string
	overwrite bool
	dryRun    bool
}

func runObjects(cmd *cobra.Command, dir string, flags objectsFlags) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	out := newOutput(cmd)

	if flags.list == "" {
		flags.list = c.Objects.List
	}
	if flags.catalog == "" {
		flags.catalog = c.Objects.Catalog
	}
	if flags.radius <= 0 {
		flags.radius = c.Objects.MatchRadius
	}
	if flags.suffix == "" {
		flags.suffix = c.Patch.Suffix
	}

	result, err := objects.Assign(dir, objects.Options{
		ListName:    flags.list,
		CatalogPath: flags.catalog,
		MatchRadius: flags.radius,
		Suffix:      flags.suffix,
		Overwrite:   flags.overwrite,
		DryRun:      flags.dryRun,
		Extensions:  c.Files.Extensions,
		Compressed:  c.Files.Compressed,
	})
	if err != nil {
		return err
	}

	out.Header("observer: " + result.Observer)
	for _, a := range result.Assigned {
		out.Printf("  %s -> %s\n", a.File, a.Object)
	}
	for _, file := range output.SortedKeys(result.Ambiguous) {
		out.Warning(fmt.Sprintf("%s matches several objects: %s",
			file, strings.Join(result.Ambiguous[file], ", ")))
	}
	if len(result.Unmatched) > 0 {
		out.CheckList("no object within radius", result.Unmatched)
	}
	if len(result.NotInCatalog) > 0 {
		out.CheckList("not in catalog", result.NotInCatalog)
	}
	if flags.dryRun {
		out.Good(fmt.Sprintf("dry run, %d files would be written", len(result.Assigned)))
	} else {
		out.Good(fmt.Sprintf("wrote %d files", len(result.Written)))
	}
	return nil
}
