package parallel

import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// ForEachChunk is ForEach over contiguous chunks, calling body(from, to) for
// at most limit chunks. Use it when body(i) alone is too small to be worth a goroutine.
func ForEachChunk(length, limit int, body func(from, to int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}
	if limit > length {
		limit = length
	}
	size := (length + limit - 1) / limit
	ForEach(limit, limit, func(c int) {
		from := c * size
		to := from + size
		if to > length {
			to = length
		}
		if from < to {
			body(from, to)
		}
	})
}
