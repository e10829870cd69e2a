package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_boundedCache_evictsOldest(t *testing.T) {
	c := NewBoundedCache(2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func Test_boundedCache_overwriteDoesNotEvict(t *testing.T) {
	c := NewBoundedCache(2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = c.Get("b")
	assert.True(t, ok)
}

func Test_boundedCache_deleteAndClear(t *testing.T) {
	c := NewBoundedCache(3)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func Test_NopCache(t *testing.T) {
	c := NewBoundedCache(0)

	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
}
