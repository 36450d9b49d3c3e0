package patterns

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bodgit/patterns/pat"
	"github.com/bodgit/patterns/pattern"
	_ "github.com/mattn/go-sqlite3"
)

// Entry summarises a pattern held in the catalog.
type Entry struct {
	ID     string
	Name   string
	Mode   pattern.ColorMode
	Width  int
	Height int
}

// New opens, creating if necessary, the catalog stored in file.
func New(file string, logger *log.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS pattern (id INTEGER PRIMARY KEY NOT NULL, identifier TEXT NOT NULL UNIQUE, name TEXT NOT NULL, mode INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, sha1 TEXT NOT NULL UNIQUE, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add stores p and returns its row id. Adding an identical pattern again
// returns the existing row, a different pattern with the same identifier
// replaces it.
func (c *Catalog) Add(p *pattern.Pattern) (int64, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := c.db.QueryRow("SELECT id FROM pattern WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		bounds := p.Bounds()
		result, err := c.db.Exec("INSERT OR REPLACE INTO pattern (identifier, name, mode, width, height, sha1, data) VALUES (?, ?, ?, ?, ?, ?, ?)", p.ID, p.Name, int64(p.Mode), bounds.Dx(), bounds.Dy(), sha, b)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// ImportFile adds every pattern found in file and returns how many there
// were.
func (c *Catalog) ImportFile(file string) (int, error) {
	l, err := ReadFile(file)
	if err != nil {
		return 0, err
	}

	for i := range l {
		if _, err := c.Add(&l[i]); err != nil {
			return i, err
		}
		c.logger.Printf("Added \"%s\" (%s) from \"%s\"\n", l[i].Name, l[i].ID, file)
	}

	return len(l), nil
}

// Entries lists the catalog ordered by identifier.
func (c *Catalog) Entries() ([]Entry, error) {
	rows, err := c.db.Query("SELECT identifier, name, mode, width, height FROM pattern ORDER BY identifier")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mode int64
		if err := rows.Scan(&e.ID, &e.Name, &mode, &e.Width, &e.Height); err != nil {
			return nil, err
		}
		e.Mode = pattern.ColorMode(mode)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Find returns the pattern with the given identifier, or nil if there is no
// such pattern.
func (c *Catalog) Find(id string) (*pattern.Pattern, error) {
	var b []byte
	switch err := c.db.QueryRow("SELECT data FROM pattern WHERE identifier = ?", id).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		p := new(pattern.Pattern)
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, err
	}
}

func (c *Catalog) all() (pattern.List, error) {
	rows, err := c.db.Query("SELECT data FROM pattern ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var l pattern.List
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		var p pattern.Pattern
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		l = append(l, p)
	}

	return l, rows.Err()
}

// Export writes the patterns with the given identifiers to w as a pattern
// file, in the order given. With no identifiers every pattern is written in
// the order it was added.
func (c *Catalog) Export(w io.Writer, ids ...string) error {
	f := pat.New()

	if len(ids) == 0 {
		l, err := c.all()
		if err != nil {
			return err
		}
		f.Patterns = l
	}

	for _, id := range ids {
		p, err := c.Find(id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no pattern with identifier \"%s\"", id)
		}
		f.Add(*p)
	}

	return pat.Encode(w, f)
}

// ExportFile is like Export but writes to file, which is only created or
// replaced once every pattern has been found and encoded.
func (c *Catalog) ExportFile(file string, ids ...string) error {
	b := new(bytes.Buffer)
	if err := c.Export(b, ids...); err != nil {
		return err
	}
	return os.WriteFile(file, b.Bytes(), 0644)
}
