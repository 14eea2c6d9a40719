package realtime

import "github.com/huguesloyatho/proxydash-sub002/internal/protocol"

// handleFrame is the Dispatcher: it decodes one inbound frame and routes
// it to the matching callback sets, synchronously and without blocking.
// Malformed frames are logged and dropped; they affect neither connection
// state nor other frames. Frames from a superseded connection are ignored.
func (c *Client) handleFrame(gen uint64, raw []byte) {
	c.mu.Lock()
	live := c.gen == gen && c.state == StateConnected
	c.mu.Unlock()
	if !live {
		return
	}

	env, err := protocol.Decode(raw)
	if err != nil {
		c.metrics.IncDecodeError()
		c.logger.Warn("dropping malformed frame", "error", err)
		return
	}
	c.metrics.IncFrame(string(env.Type))

	switch env.Type {
	case protocol.FrameWidgetUpdate:
		u, err := env.WidgetUpdate()
		if err != nil {
			c.metrics.IncDecodeError()
			c.logger.Warn("dropping malformed widget_update", "error", err)
			return
		}
		// A single update fans out to the id-scoped and the type-scoped
		// audiences; each callback is invoked exactly once.
		for _, fn := range c.registry.updateCallbacks(u.WidgetID, u.WidgetType) {
			fn(u)
		}

	case protocol.FrameWidgetError:
		we, err := env.WidgetError()
		if err != nil {
			c.metrics.IncDecodeError()
			c.logger.Warn("dropping malformed widget_error", "error", err)
			return
		}
		for _, fn := range c.registry.errorCallbacks(we.WidgetID) {
			fn(we)
		}

	case protocol.FramePong, protocol.FrameHeartbeat:
		c.mu.Lock()
		hb := c.hb
		c.mu.Unlock()
		if hb != nil {
			hb.touch()
		}

	case protocol.FrameConnected, protocol.FrameSubscribed, protocol.FrameUnsubscribed:
		c.logger.Debug("control frame", "type", env.Type)

	case protocol.FrameError:
		c.logger.Warn("server error frame", "data", string(env.Data))

	default:
		c.logger.Debug("ignoring unknown frame type", "type", env.Type)
	}
}
