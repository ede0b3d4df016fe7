// Package cache provides the bounded in-process stores for uploaded images, analysis results and recommendations.
//
// Entries live in memory only and are lost on restart.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is a string-keyed cache. Put always overwrites.
type Store[V any] interface {
	Get(id string) (V, bool)
	Put(id string, v V)
	Remove(id string)
	Len() int
}

// Options bound an [LRU]. Size <= 0 means unbounded; TTL <= 0 means entries never expire.
type Options struct {
	Size    int
	TTL     time.Duration
	OnEvict func(id string)
}

// LRU is a [Store] that evicts the least recently used entry once Size is reached and drops entries
// older than TTL. It is safe for concurrent use.
type LRU[V any] struct {
	inner *expirable.LRU[string, V]
}

// NewLRU creates an [LRU] with the given bounds.
func NewLRU[V any](opts Options) *LRU[V] {
	var onEvict expirable.EvictCallback[string, V]
	if opts.OnEvict != nil {
		onEvict = func(id string, _ V) { opts.OnEvict(id) }
	}
	return &LRU[V]{inner: expirable.NewLRU(opts.Size, onEvict, opts.TTL)}
}

func (c *LRU[V]) Get(id string) (V, bool) { return c.inner.Get(id) }

func (c *LRU[V]) Put(id string, v V) { c.inner.Add(id, v) }

func (c *LRU[V]) Remove(id string) { c.inner.Remove(id) }

func (c *LRU[V]) Len() int { return c.inner.Len() }
