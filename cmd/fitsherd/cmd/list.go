package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitsherd/fitsherd/internal/collection"
)

// listOptions holds CLI flags for list.
type listOptions struct {
	keywords      []string // tracked keywords, overriding config
	keyValues     []string // K=V filters, repeatable
	withKeys      []string // keywords that must be present ("all" = tracked)
	valuesOf      string   // print values of one keyword
	unique        bool
	writeManifest bool
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list [directory]",
		Short: "Index a directory of FITS files and query it",
		Long: `Index a directory of FITS files by header-keyword values.

With no filter flags, prints the summary table of tracked keywords.

Examples:
  fitsherd list night1
  fitsherd list night1 --key imagetyp=LIGHT --key filter=R
  fitsherd list night1 --key imagetyp='*'
  fitsherd list night1 --with-keys ra,dec
  fitsherd list night1 --values filter --unique
  fitsherd list night1 --write-manifest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, argDir(args), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.keywords, "keywords", nil,
		"tracked header keywords (default from config)")
	cmd.Flags().StringArrayVar(&opts.keyValues, "key", nil,
		"keyword=value filter, repeatable; value '*' matches any non-empty value")
	cmd.Flags().StringSliceVar(&opts.withKeys, "with-keys", nil,
		"only files where these keywords have values; 'all' means every tracked keyword")
	cmd.Flags().StringVar(&opts.valuesOf, "values", "",
		"print the values of one tracked keyword")
	cmd.Flags().BoolVar(&opts.unique, "unique", false,
		"with --values, drop duplicate values")
	cmd.Flags().BoolVar(&opts.writeManifest, "write-manifest", false,
		"write the summary as the directory manifest")

	return cmd
}

func runList(cmd *cobra.Command, dir string, opts listOptions) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	out := newOutput(cmd)

	keywords := opts.keywords
	if len(keywords) == 0 {
		keywords = c.Keyword.Tracked
	}

	coll, err := collection.New(dir, collection.Options{
		Keywords:       keywords,
		Extensions:     c.Files.Extensions,
		Compressed:     c.Files.Compressed,
		Manifest:       c.Files.Manifest,
		StorageDir:     c.Storage.Dir,
		StorageSameDir: c.Storage.SameDir,
	})
	if err != nil {
		return err
	}

	if opts.writeManifest {
		path := filepath.Join(dir, c.Files.Manifest)
		if err := collection.WriteManifest(path, coll); err != nil {
			return err
		}
		out.Good("wrote " + path)
	}

	switch {
	case opts.valuesOf != "":
		values, err := coll.Values(opts.valuesOf, opts.unique)
		if err != nil {
			return err
		}
		out.List(values)
		return nil

	case len(opts.keyValues) > 0:
		keys, values, err := parseKeyValues(opts.keyValues)
		if err != nil {
			return err
		}
		files, err := coll.FilesWithKeyValues(keys, values)
		if err != nil {
			return err
		}
		out.List(files)
		return nil

	case len(opts.withKeys) > 0:
		keys := opts.withKeys
		if len(keys) == 1 && strings.EqualFold(keys[0], "all") {
			keys = nil
		}
		files, err := coll.FilesWithKeys(keys)
		if err != nil {
			return err
		}
		out.List(files)
		return nil
	}

	columns := append([]string{collection.FileColumn}, coll.Keywords()...)
	out.Table(columns, coll.Summary())
	if unreadable := coll.Unreadable(); len(unreadable) > 0 {
		out.CheckList("unreadable", unreadable)
	}
	return nil
}

// parseKeyValues splits repeated keyword=value flags into parallel slices.
func parseKeyValues(pairs []string) (keys, values []string, err error) {
	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			return nil, nil, fmt.Errorf("bad --key %q, want keyword=value", pair)
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	return keys, values, nil
}
