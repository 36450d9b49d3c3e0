/*
Package patterns is a library for maintaining a catalog of patterns, the
named tileable pixel blocks found in pattern files and in the pattern
resources of layered image documents.
*/
package patterns

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/bodgit/patterns/pat"
	"github.com/bodgit/patterns/pattern"
)

const decodeWorkers = 4

// Catalog is a sqlite-backed collection of patterns keyed by identifier.
type Catalog struct {
	db     *sql.DB
	logger *log.Logger
}

func decode(b []byte) (pattern.List, error) {
	if pat.IsPatternFile(b) {
		f := new(pat.File)
		if err := f.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return f.Patterns, nil
	}
	return pattern.DecodeListConcurrent(context.Background(), b, decodeWorkers)
}

// ReadFile returns every pattern stored in file, which is either a pattern
// file or a list of length framed pattern records as found in a layered
// image document.
func ReadFile(file string) (pattern.List, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return decode(b)
}
