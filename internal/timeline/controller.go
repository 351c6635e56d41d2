package timeline

import (
	"errors"
	"fmt"

	"github.com/horristic/plyseq/internal/ply"
)

// Consumer receives scene updates from a Controller. ShowFrame hands over a
// freshly built RenderFrame the consumer may keep; HideFrame signals that no
// cloud exists for the requested frame and the scene object should disappear.
// Calls arrive synchronously from inside OnFrameRequest.
type Consumer interface {
	ShowFrame(f *RenderFrame)
	HideFrame(frame int)
}

// Controller drives a Consumer from scene frame change requests: index
// lookup, cached decode, capture-to-scene transform, show or hide. It is a
// plain owned value with no background goroutine.
type Controller struct {
	index    *FrameIndex
	cache    *FrameCache
	consumer Consumer
	loader   LoadFunc

	current int
	visible bool
}

// NewController wires an index, a cache and a consumer together. Frames load
// through ply.Decode on the indexed path.
func NewController(index *FrameIndex, cache *FrameCache, consumer Consumer) *Controller {
	c := &Controller{
		index:    index,
		cache:    cache,
		consumer: consumer,
		current:  -1,
	}
	c.loader = func(frame int) (*ply.Cloud, error) {
		path, ok := index.Lookup(frame)
		if !ok {
			return nil, fmt.Errorf("frame %d: %w", frame, ply.ErrNotFound)
		}
		return ply.Decode(path)
	}
	return c
}

// OnFrameRequest delivers the cloud for frame to the consumer. Requesting
// the frame already shown is a no-op. A frame with no index entry, or whose
// file vanished between scan and decode, hides the consumer and is not an
// error. Any other decode failure propagates and leaves cache and visibility
// untouched.
func (c *Controller) OnFrameRequest(frame int) error {
	if c.visible && frame == c.current {
		return nil
	}

	if _, ok := c.index.Lookup(frame); !ok {
		c.hide(frame)
		return nil
	}

	cloud, err := c.cache.GetOrLoad(frame, c.loader)
	if err != nil {
		if errors.Is(err, ply.ErrNotFound) {
			c.hide(frame)
			return nil
		}
		return fmt.Errorf("load frame %d: %w", frame, err)
	}

	c.consumer.ShowFrame(BuildRenderFrame(frame, cloud))
	c.current = frame
	c.visible = true
	return nil
}

// hide signals the consumer and resets the delivered-frame latch so that a
// later request for the previously shown frame delivers it again.
func (c *Controller) hide(frame int) {
	c.consumer.HideFrame(frame)
	c.current = -1
	c.visible = false
}

// CurrentFrame returns the last delivered frame and whether the consumer is
// currently showing one.
func (c *Controller) CurrentFrame() (int, bool) {
	return c.current, c.visible
}

// Cache exposes the controller's frame cache for status reporting.
func (c *Controller) Cache() *FrameCache {
	return c.cache
}
