package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageClampsOutOfRange(t *testing.T) {
	// 25 条、每页 10 条 -> 3 页
	p := NewPage(99, 10, 25)
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 20, p.Offset())

	p = NewPage(0, 10, 25)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 0, p.Offset())

	p = NewPage(-5, 10, 25)
	assert.Equal(t, 1, p.Number)
}

func TestNewPageEmptyListing(t *testing.T) {
	p := NewPage(7, 10, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.Pages)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestNewPageNavigation(t *testing.T) {
	p := NewPage(2, 10, 25)
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrev())
	assert.Equal(t, 10, p.Offset())
}

func TestParsePageNumber(t *testing.T) {
	assert.Equal(t, 1, ParsePageNumber(""))
	assert.Equal(t, 1, ParsePageNumber("abc"))
	assert.Equal(t, 1, ParsePageNumber("-2"))
	assert.Equal(t, 4, ParsePageNumber("4"))
}
