package recurring

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the store's per-query id-list limit.
const DefaultChunkSize = 10

// LookupFunc fetches the records for at most one chunk of ids.
type LookupFunc[T any] func(ctx context.Context, ids []string) (map[string]T, error)

// ResolveAll partitions ids into chunks of size and runs one lookup per chunk
// in parallel. A failed chunk is logged and its ids stay unresolved; the
// merged map is best-effort and the call itself never fails. Callers treat
// "absent from map" as not found.
func ResolveAll[T any](ctx context.Context, ids []string, size int, name string, fn LookupFunc[T]) map[string]T {
	out := make(map[string]T, len(ids))
	if len(ids) == 0 {
		return out
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	var mu sync.Mutex
	var g errgroup.Group
	for start := 0; start < len(ids); start += size {
		chunk := ids[start:min(start+size, len(ids))]
		g.Go(func() error {
			recs, err := fn(ctx, chunk)
			if err != nil {
				log.Printf("resolver: %s chunk (%d ids) failed: %v", name, len(chunk), err)
				return nil // chunk lain tetap jalan
			}
			mu.Lock()
			for k, v := range recs {
				out[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
