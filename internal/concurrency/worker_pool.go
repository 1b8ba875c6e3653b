package concurrency

import (
	"context"
	"sync"
)

// WorkerFn handles task index i.
type WorkerFn func(ctx context.Context, i int)

// ForEach runs fn for every index in [0, tasks) on at most concurrency
// goroutines and waits for all of them. Tasks not yet started when ctx is
// cancelled are skipped.
func ForEach(ctx context.Context, concurrency, tasks int, fn WorkerFn) {
	if tasks <= 0 {
		return
	}
	if concurrency <= 0 || concurrency > tasks {
		concurrency = tasks
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				fn(ctx, i)
			}
		}()
	}

feed:
	for i := 0; i < tasks; i++ {
		select {
		case next <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()
}
