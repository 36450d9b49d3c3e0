package pattern

import (
	"context"
	"fmt"

	"github.com/bodgit/patterns/internal/pipeline"
	"github.com/bodgit/patterns/psdio"
)

// Split walks the length framed records of an encoded list and returns the
// bytes of each record, without decoding them.
func Split(b []byte) ([][]byte, error) {
	r := psdio.NewReader(b)
	var records [][]byte
	for r.Len() >= 4 {
		br, err := r.ReadLengthBlock(listPadding)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", len(records), err)
		}
		records = append(records, br.Bytes())
	}
	return records, nil
}

type record struct {
	index int
	b     []byte
}

func feedRecords(ctx context.Context, records [][]byte) <-chan record {
	out := make(chan record)
	go func() {
		defer close(out)
		for i, b := range records {
			select {
			case out <- record{i, b}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// decodeWorker decodes each record into its slot of l
func decodeWorker(in <-chan record, l List) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for rec := range in {
			p, err := ReadPattern(psdio.NewReader(rec.b))
			if err != nil {
				errc <- fmt.Errorf("pattern %d: %w", rec.index, err)
				return
			}
			l[rec.index] = *p
		}
	}()
	return errc
}

// DecodeListConcurrent decodes an encoded list using the given number of
// workers. The records are located sequentially and then decoded in
// parallel; the result is in the same order as the input. The first error
// stops the remaining work.
func DecodeListConcurrent(ctx context.Context, b []byte, workers int) (List, error) {
	records, err := Split(b)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	l := make(List, len(records))
	in := feedRecords(ctx, records)

	errcList := make([]<-chan error, 0, workers)
	for i := 0; i < workers; i++ {
		errcList = append(errcList, decodeWorker(in, l))
	}

	if err := pipeline.Wait(errcList...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return l, nil
}
