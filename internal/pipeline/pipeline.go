// Package pipeline holds the error plumbing shared by the worker pipelines.
package pipeline

import "sync"

// Wait drains every error channel and returns the first non-nil error, or
// nil once all of the channels are closed.
func Wait(errs ...<-chan error) error {
	errc := MergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

// MergeErrors fans in the error channels into one channel that is closed
// when they all are.
func MergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
