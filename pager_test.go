package main

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagesOf(pages map[string][]int, next map[string]*string) pageFunc[int] {
	return func(token *string) ([]int, *string, error) {
		key := aws.StringValue(token)
		return pages[key], next[key], nil
	}
}

func TestPagerWalksEveryPage(t *testing.T) {
	p := newPager(pagesOf(
		map[string][]int{"": {1, 2}, "b": {3}, "c": {4, 5}},
		map[string]*string{"": aws.String("b"), "b": aws.String("c")},
	))

	var got []int
	for p.HasMorePages() {
		items, err := p.NextPage()
		require.NoError(t, err)
		got = append(got, items...)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)

	_, err := p.NextPage()
	assert.Error(t, err)
}

func TestPagerStopsOnEmptyToken(t *testing.T) {
	p := newPager(pagesOf(
		map[string][]int{"": {1}},
		map[string]*string{"": aws.String("")},
	))

	all, err := collect(p)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, all)
	assert.False(t, p.HasMorePages())
}

func TestPagerEmptyListing(t *testing.T) {
	all, err := collect(newPager(pagesOf(nil, nil)))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPagerKeepsPositionOnError(t *testing.T) {
	fail := true
	p := newPager(func(token *string) ([]int, *string, error) {
		if fail {
			return nil, nil, errors.New("throttled")
		}
		return []int{7}, nil, nil
	})

	_, err := p.NextPage()
	require.Error(t, err)
	assert.True(t, p.HasMorePages())

	fail = false
	items, err := p.NextPage()
	require.NoError(t, err)
	assert.Equal(t, []int{7}, items)
	assert.False(t, p.HasMorePages())
}
