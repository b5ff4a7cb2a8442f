package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fitsherd/fitsherd/internal/collection"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
	"github.com/fitsherd/fitsherd/internal/triage"
)

func newTriageCmd() *cobra.Command {
	var keywords []string
	var writeManifest bool

	cmd := &cobra.Command{
		Use:   "triage [directory]",
		Short: "Check FITS files for deficient headers",
		Long: `Check every FITS file in a directory for deficient headers: flat and
light frames without FILTER, light frames with no pointing keywords,
and light frames with no object name.

Triage always reads the files on disk; it never trusts a manifest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd, argDir(args), keywords, writeManifest)
		},
	}

	cmd.Flags().StringSliceVar(&keywords, "keywords", nil,
		"header keywords kept in the report summary (default from config)")
	cmd.Flags().BoolVar(&writeManifest, "write-manifest", false,
		"write the summary as the directory manifest")

	return cmd
}

func runTriage(cmd *cobra.Command, dir string, keywords []string, writeManifest bool) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	out := newOutput(cmd)

	if len(keywords) == 0 {
		keywords = c.Keyword.Tracked
	}
	reader, err := fitshdr.NewCachedReader()
	if err != nil {
		return err
	}

	report, err := triage.Run(dir, triage.Options{
		Keywords:   keywords,
		Extensions: c.Files.Extensions,
		Compressed: c.Files.Compressed,
		Reader:     reader,
	})
	if err != nil {
		return err
	}

	out.Header(fmt.Sprintf("%s: %d files", dir, len(report.Files)))
	out.CheckList("need FILTER", report.NeedsFilter)
	out.CheckList("need pointing information", report.NeedsPointing)
	out.CheckList("need an object name", report.NeedsObjectName)
	out.CheckList("unreadable", report.Unreadable)
	if report.Clean() {
		out.Good("all headers complete")
	}

	if !writeManifest {
		return nil
	}
	// The shared reader makes this a cache walk, not a second scan.
	coll, err := collection.New(dir, collection.Options{
		Keywords:   keywords,
		Extensions: c.Files.Extensions,
		Compressed: c.Files.Compressed,
		Reader:     reader,
	})
	if err != nil {
		return err
	}
	path := filepath.Join(dir, c.Files.Manifest)
	if err := collection.WriteManifest(path, coll); err != nil {
		return err
	}
	out.Good("wrote " + path)
	return nil
}
