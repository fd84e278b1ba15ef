package feed

import "github.com/abelbrown/reviews/internal/layout"

// HeightCache memoizes measured row frames by row identity. Heights are
// read from the cached frames, and rendering reuses them, so a row is laid
// out once per width until it is invalidated. It holds entries for a single
// width; callers Reset it when the width changes.
type HeightCache struct {
	frames map[RowID]layout.Frames
}

// NewHeightCache creates an empty cache.
func NewHeightCache() *HeightCache {
	return &HeightCache{frames: make(map[RowID]layout.Frames)}
}

// Get returns the cached height for id.
func (c *HeightCache) Get(id RowID) (int, bool) {
	f, ok := c.frames[id]
	return f.Height, ok
}

// Frames returns the cached frames for id.
func (c *HeightCache) Frames(id RowID) (layout.Frames, bool) {
	f, ok := c.frames[id]
	return f, ok
}

// Put stores measured frames.
func (c *HeightCache) Put(id RowID, f layout.Frames) {
	c.frames[id] = f
}

// Invalidate drops the entry for id only.
func (c *HeightCache) Invalidate(id RowID) {
	delete(c.frames, id)
}

// Reset drops every entry.
func (c *HeightCache) Reset() {
	clear(c.frames)
}

// Len returns the number of cached entries.
func (c *HeightCache) Len() int {
	return len(c.frames)
}
