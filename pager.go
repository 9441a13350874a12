package main

import (
	"github.com/pkg/errors"
)

const pageSize int64 = 10

// pageFunc fetches one page for the given continuation token and returns the
// token of the next page, nil when there is none.
type pageFunc[T any] func(token *string) ([]T, *string, error)

// pager walks a continuation-token listing one page at a time. It is finite
// and not restartable: a failed page leaves the pager where it was.
type pager[T any] struct {
	fetch     pageFunc[T]
	token     *string
	firstPage bool
}

func newPager[T any](fetch pageFunc[T]) *pager[T] {
	return &pager[T]{
		fetch:     fetch,
		firstPage: true,
	}
}

func (p *pager[T]) HasMorePages() bool {
	return p.firstPage || (p.token != nil && *p.token != "")
}

func (p *pager[T]) NextPage() ([]T, error) {
	if !p.HasMorePages() {
		return nil, errors.New("no more pages available")
	}

	items, next, err := p.fetch(p.token)
	if err != nil {
		return nil, err
	}

	p.firstPage = false
	p.token = next
	return items, nil
}

func collect[T any](p *pager[T]) ([]T, error) {
	var all []T
	for p.HasMorePages() {
		items, err := p.NextPage()
		if err != nil {
			return all, err
		}
		all = append(all, items...)
	}
	return all, nil
}
