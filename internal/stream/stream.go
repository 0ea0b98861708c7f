// Package stream provides lazy, restartable sequences that are consumed by
// pulling. Nothing is produced until a consumer ranges over a Seq, and each
// new range re-runs the producer from the start.
//
// A stage only advances when its consumer asks for the next element, so a
// consumer that stops ranging stops the whole chain.
package stream

import (
	"context"
	"time"
)

// Seq is a lazy sequence of values. A non-nil error ends the sequence.
type Seq[T any] func(yield func(T, error) bool)

// FromSlice yields the items in order.
func FromSlice[T any](items []T) Seq[T] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Fail yields a single error.
func Fail[T any](err error) Seq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Map applies fn to every element.
func Map[T, U any](s Seq[T], fn func(T) U) Seq[U] {
	return func(yield func(U, error) bool) {
		for v, err := range s {
			if err != nil {
				var zero U
				yield(zero, err)
				return
			}
			if !yield(fn(v), nil) {
				return
			}
		}
	}
}

// Filter keeps the elements for which keep returns true.
func Filter[T any](s Seq[T], keep func(T) bool) Seq[T] {
	return func(yield func(T, error) bool) {
		for v, err := range s {
			if err != nil {
				yield(v, err)
				return
			}
			if !keep(v) {
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Peek calls fn for each element as it passes through.
func Peek[T any](s Seq[T], fn func(T)) Seq[T] {
	return func(yield func(T, error) bool) {
		for v, err := range s {
			if err == nil {
				fn(v)
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Repeat replays s the given number of times in total. times <= 0 repeats
// forever. A cycle that yields nothing ends the sequence, so an empty source
// never spins.
func Repeat[T any](s Seq[T], times int) Seq[T] {
	return func(yield func(T, error) bool) {
		for cycle := 0; times <= 0 || cycle < times; cycle++ {
			produced := false
			for v, err := range s {
				if err != nil {
					yield(v, err)
					return
				}
				produced = true
				if !yield(v, nil) {
					return
				}
			}
			if !produced {
				return
			}
		}
	}
}

// Delay waits d after each element arrives before handing it to the
// consumer. The wait is abandoned when ctx is done, in which case ctx.Err()
// ends the sequence.
func Delay[T any](ctx context.Context, s Seq[T], d time.Duration) Seq[T] {
	return func(yield func(T, error) bool) {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for v, err := range s {
			if err != nil {
				yield(v, err)
				return
			}
			if timer == nil {
				timer = time.NewTimer(d)
			} else {
				timer.Reset(d)
			}

			select {
			case <-ctx.Done():
				var zero T
				yield(zero, ctx.Err())
				return
			case <-timer.C:
			}

			if !yield(v, nil) {
				return
			}
		}
	}
}

// Until ends the sequence with ctx.Err() as soon as ctx is done.
func Until[T any](ctx context.Context, s Seq[T]) Seq[T] {
	return func(yield func(T, error) bool) {
		if err := ctx.Err(); err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for v, err := range s {
			if err == nil {
				if cerr := ctx.Err(); cerr != nil {
					var zero T
					yield(zero, cerr)
					return
				}
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Chunk groups elements into batches of size. The last batch may be
// shorter. At most one batch is held at a time: the next one is not started
// until the consumer returns from the previous yield. Each batch is a fresh
// slice owned by the consumer.
func Chunk[T any](s Seq[T], size int) Seq[[]T] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]T, error) bool) {
		batch := make([]T, 0, size)
		for v, err := range s {
			if err != nil {
				if len(batch) > 0 && !yield(batch, nil) {
					return
				}
				yield(nil, err)
				return
			}
			batch = append(batch, v)
			if len(batch) == size {
				if !yield(batch, nil) {
					return
				}
				batch = make([]T, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}

// Collect drains s into a slice.
func Collect[T any](s Seq[T]) ([]T, error) {
	var items []T
	for v, err := range s {
		if err != nil {
			return items, err
		}
		items = append(items, v)
	}
	return items, nil
}
