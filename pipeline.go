package patterns

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/patterns/internal/pipeline"
	"github.com/bodgit/patterns/pat"
	"github.com/bodgit/patterns/pattern"
)

const scanWorkers = 10

type found struct {
	file    string
	pattern pattern.Pattern
}

func (c *Catalog) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a pattern file
			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(file), pat.Extension) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) decodeWorker(ctx context.Context, in <-chan string) (<-chan found, <-chan error, error) {
	out := make(chan found)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for file := range in {
			b, err := os.ReadFile(file)
			if err != nil {
				errc <- err
				return
			}

			l, err := decode(b)
			if err != nil {
				c.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			for _, p := range l {
				select {
				case out <- found{file, p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, errc, nil
}

func (c *Catalog) storeWorker(in <-chan found) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for f := range in {
			if _, err := c.Add(&f.pattern); err != nil {
				errc <- err
				return
			}
			c.logger.Printf("Added \"%s\" (%s) from \"%s\"\n", f.pattern.Name, f.pattern.ID, f.file)
		}
	}()
	return errc, nil
}

func mergeFound(ctx context.Context, cs ...<-chan found) <-chan found {
	var wg sync.WaitGroup
	out := make(chan found)
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan found) {
			defer wg.Done()
			for f := range c {
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path for pattern files and adds every pattern found to the
// catalog. Files are decoded concurrently and files that fail to decode are
// logged and skipped.
func (c *Catalog) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	var decoded []<-chan found
	for i := 0; i < scanWorkers; i++ {
		out, errc, err := c.decodeWorker(ctx, files)
		if err != nil {
			return err
		}
		decoded = append(decoded, out)
		errcList = append(errcList, errc)
	}

	errc, err = c.storeWorker(mergeFound(ctx, decoded...))
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	return pipeline.Wait(errcList...)
}
