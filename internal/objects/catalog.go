package objects

import (
	"os"
	"strings"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/fitsherd/fitsherd/internal/astro"
	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// DefaultCatalogName is the object catalog file name.
const DefaultCatalogName = "objects.yaml"

// CatalogEntry is one cataloged target. RA is in hours and Dec in degrees,
// sexagesimal or decimal.
type CatalogEntry struct {
	Name string `yaml:"name"`
	RA   string `yaml:"ra"`
	Dec  string `yaml:"dec"`
}

// Catalog maps object names to sky positions. Positions are local: there
// is no network name resolution.
type Catalog struct {
	Objects []CatalogEntry `yaml:"objects"`
}

// Position is a parsed catalog position.
type Position struct {
	RA  unit.Angle
	Dec unit.Angle
}

// LoadCatalog reads and validates a YAML object catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot read catalog "+path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, herderrors.New(herderrors.ErrCodeInvalidInput,
			"cannot parse catalog "+path, err)
	}

	for _, e := range c.Objects {
		if e.Name == "" {
			return nil, herderrors.New(herderrors.ErrCodeInvalidInput,
				"catalog "+path+" has an entry without a name", nil)
		}
		if _, err := e.position(); err != nil {
			return nil, herderrors.New(herderrors.ErrCodeInvalidInput,
				"catalog entry "+e.Name+" has a bad position", err)
		}
	}
	return &c, nil
}

// Find returns the position of the named object, matching names
// case-insensitively.
func (c *Catalog) Find(name string) (Position, bool) {
	for _, e := range c.Objects {
		if strings.EqualFold(e.Name, name) {
			pos, err := e.position()
			if err != nil {
				return Position{}, false
			}
			return pos, true
		}
	}
	return Position{}, false
}

func (e CatalogEntry) position() (Position, error) {
	ra, err := astro.ParseRA(e.RA)
	if err != nil {
		return Position{}, err
	}
	dec, err := astro.ParseDec(e.Dec)
	if err != nil {
		return Position{}, err
	}
	return Position{RA: ra, Dec: dec}, nil
}
