package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitsherd/fitsherd/internal/output"
	"github.com/fitsherd/fitsherd/internal/patch"
)

func newPatchCmd() *cobra.Command {
	var overwrite bool
	var suffix string
	var workers int

	cmd := &cobra.Command{
		Use:   "patch [directory]",
		Short: "Add derived metadata to FITS headers",
		Long: `Patch every FITS file in a directory with derived metadata: the
observing site, JD/MJD/LST from DATE-OBS, and for light frames the
object's altitude, azimuth, airmass and hour angle.

When the directory carries a manifest it names the files to patch;
otherwise the directory is scanned. By default each input produces a
sibling copy with a suffix before the extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, argDir(args), overwrite, suffix, workers)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false,
		"replace the input files instead of writing copies")
	cmd.Flags().StringVar(&suffix, "suffix", "",
		"suffix inserted before the extension of patched copies (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0,
		"concurrent file rewrites (default from config)")

	return cmd
}

func runPatch(cmd *cobra.Command, dir string, overwrite bool, suffix string, workers int) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	out := newOutput(cmd)

	if suffix == "" {
		suffix = c.Patch.Suffix
	}
	if workers <= 0 {
		workers = c.Patch.Workers
	}

	result, err := patch.Run(cmd.Context(), dir, patch.Options{
		Site:             siteFromConfig(c),
		Suffix:           suffix,
		Overwrite:        overwrite,
		Workers:          workers,
		SecondsPrecision: c.Patch.SecondsPrecision,
		Manifest:         c.Files.Manifest,
		Extensions:       c.Files.Extensions,
		Compressed:       c.Files.Compressed,
	})
	if err != nil {
		return err
	}

	out.Good(fmt.Sprintf("patched %d files", len(result.Patched)))
	if len(result.Skipped) > 0 {
		out.CheckList("skipped", result.Skipped)
	}
	for _, name := range output.SortedKeys(result.Failed) {
		out.Bad(fmt.Sprintf("%s: %v", name, result.Failed[name]))
	}
	return nil
}
