package tweetstat

import (
	"context"
	"iter"
)

// PageFunc fetches one page starting at cursor. An empty cursor means the first page.
// It returns the page items and the cursor of the next page, or "" when the source is exhausted.
type PageFunc[T any] func(ctx context.Context, cursor string, size int) (items []T, next string, err error)

// Pager is a lazy, restartable sequence over a cursor-paginated source.
// Every call to Items starts again from the first page.
type Pager[T any] struct {
	fetch    PageFunc[T]
	pageSize int
}

// NewPager creates a pager requesting at most pageSize items per page.
func NewPager[T any](pageSize int, fetch PageFunc[T]) *Pager[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Pager[T]{fetch: fetch, pageSize: pageSize}
}

// Items yields up to limit items in source order. It stops at limit, on an empty page,
// or when the cursor is exhausted. A fetch error is yielded once and ends the sequence.
func (p *Pager[T]) Items(ctx context.Context, limit int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		var cursor string
		n := 0
		for n < limit {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			items, next, err := p.fetch(ctx, cursor, min(p.pageSize, limit-n))
			if err != nil {
				yield(zero, err)
				return
			}
			if len(items) == 0 {
				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
				n++
				if n >= limit {
					return
				}
			}

			if next == "" || next == cursor {
				return
			}
			cursor = next
		}
	}
}

// Collect drains Items into a slice. On error it returns the items gathered so far.
func (p *Pager[T]) Collect(ctx context.Context, limit int) ([]T, error) {
	var out []T
	for item, err := range p.Items(ctx, limit) {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
