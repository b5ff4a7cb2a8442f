// Package objects assigns OBJECT names to light frames by matching their
// RA/Dec against a local catalog of the night's targets.
package objects

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// DefaultListName is the observing-log file name inside an image directory.
const DefaultListName = "obsinfo.txt"

// ObservingLog is the parsed contents of an obsinfo.txt file.
type ObservingLog struct {
	// Observer is the name(s) of the observer(s), from the first
	// non-comment line.
	Observer string
	// Objects are the target names observed that night, one per line.
	Objects []string
}

// ReadObjectList parses the observing log in dir. Lines starting with #
// are ignored; the first remaining line names the observer and the rest
// name one object each. Blank object lines are skipped.
func ReadObjectList(dir, name string) (*ObservingLog, error) {
	if name == "" {
		name = DefaultListName
	}
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot open object list "+path, err)
	}
	defer func() { _ = f.Close() }()

	log := &ObservingLog{}
	first := true
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if first {
			first = false
			log.Observer = line
			continue
		}
		if line != "" {
			log.Objects = append(log.Objects, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot read object list "+path, err)
	}
	return log, nil
}
