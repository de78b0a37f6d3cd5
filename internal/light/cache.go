package light

import (
	"sync"

	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/syntax"
)

// Cache hands out one view per annotation entry. Views live as long as the
// snapshot their entry belongs to; Apply drops the ones a file change may
// have affected.
type Cache struct {
	opts Options

	mu       sync.Mutex
	res      *resolve.Resolver
	views    map[*syntax.Entry]*View
	defaults map[*syntax.Declaration]*View
}

// NewCache creates a cache resolving through res.
func NewCache(res *resolve.Resolver, opts Options) *Cache {
	return &Cache{
		opts:     opts,
		res:      res,
		views:    make(map[*syntax.Entry]*View),
		defaults: make(map[*syntax.Declaration]*View),
	}
}

// Resolver returns the resolver new views are created with.
func (c *Cache) Resolver() *resolve.Resolver {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.res
}

// View returns the view of e, creating it on first use.
func (c *Cache) View(e *syntax.Entry) *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[e]; ok {
		return v
	}
	v := NewView(c.res, e, c.opts)
	c.views[e] = v
	return v
}

// Defaults returns the defaults view of annotation class d.
func (c *Cache) Defaults(d *syntax.Declaration) *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.defaults[d]; ok {
		return v
	}
	v := NewDefaultsView(c.res, d, c.opts)
	c.defaults[d] = v
	return v
}

// Views returns the views of every entry of f in source order.
func (c *Cache) Views(f *syntax.File) []*View {
	out := make([]*View, len(f.Entries))
	for i, e := range f.Entries {
		out[i] = c.View(e)
	}
	return out
}

// Apply switches to a new resolver and drops the views of entries and
// declarations in the given files. Views of other files stay valid.
func (c *Cache) Apply(res *resolve.Resolver, dropped []string) {
	drop := make(map[string]struct{}, len(dropped))
	for _, p := range dropped {
		drop[p] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.res = res
	for e := range c.views {
		if e.File == nil {
			continue
		}
		if _, ok := drop[e.File.Path]; ok {
			delete(c.views, e)
		}
	}
	for d := range c.defaults {
		if d.File == nil {
			continue
		}
		if _, ok := drop[d.File.Path]; ok {
			delete(c.defaults, d)
		}
	}
	log.Debugf("dropped views of %d files, %d views kept", len(dropped), len(c.views))
}

// Len returns the number of cached entry views.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}
