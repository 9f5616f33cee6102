package atom

import (
	"fmt"

	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/limits"
)

// StreamingCache preloads the head of streamed files.
type StreamingCache struct {
	engine     *Engine
	h          *handle.Handle
	maxPath    int
	completion *bridge.StreamingCacheSlot
}

// NewStreamingCache creates a cache for files whose paths are at most
// maxPath bytes.
func (e *Engine) NewStreamingCache(maxPath int) (*StreamingCache, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if maxPath <= 0 || maxPath > limits.MaxPathLength {
		return nil, fmt.Errorf("%w: max path %d outside (0, %d]", limits.ErrTooLong, maxPath, limits.MaxPathLength)
	}
	h, err := e.newHandle(e.native.CreateStreamingCache(int32(maxPath)), "streaming_cache", e.native.DestroyStreamingCache)
	if err != nil {
		return nil, err
	}
	raw, _ := h.Raw()
	c := &StreamingCache{
		engine:     e,
		h:          h,
		maxPath:    maxPath,
		completion: bridge.NewStreamingCacheSlot("streaming_cache", e.slotOptions(bridge.KindStreamingCache, uintptr(raw))...),
	}
	if err := e.track(h, c); err != nil {
		_ = c.completion.Close()
		_ = h.Release()
		return nil, err
	}
	return c, nil
}

// Handle returns the native handle.
func (c *StreamingCache) Handle() *handle.Handle { return c.h }

// CacheFile queues path for loading.
func (c *StreamingCache) CacheFile(path string) error {
	raw, err := c.h.Raw()
	if err != nil {
		return err
	}
	buf := c.engine.getScratch()
	defer c.engine.putScratch(buf)
	arg, err := c.engine.encode(buf[:0], path, limits.FieldPath, true)
	if err != nil {
		return err
	}
	if arg.Len() > c.maxPath {
		return fmt.Errorf("%w: path length %d exceeds cache limit %d", limits.ErrTooLong, arg.Len(), c.maxPath)
	}
	if !c.engine.native.CacheFile(uintptr(raw), arg.Ptr()) {
		return rejected("cache file")
	}
	return nil
}

// OnCompletion sets the handler called when a queued file finishes loading.
// Returning false cancels the files still queued. A nil fn removes it.
func (c *StreamingCache) OnCompletion(fn func(cache *StreamingCache) bool) error {
	if fn == nil {
		return c.completion.Unregister()
	}
	return c.completion.Register(func(ctx any, _ bridge.StreamingCacheArgs) bool {
		return fn(ctx.(*StreamingCache))
	}, c)
}

// Close stops callbacks and destroys the native cache.
func (c *StreamingCache) Close() error {
	err := c.completion.Close()
	c.engine.untrack(c.h)
	if rerr := c.h.Release(); rerr != nil {
		return rerr
	}
	return err
}
