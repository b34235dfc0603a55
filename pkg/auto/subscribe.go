package auto

import "reflect"

// runSubscribe keeps one subscription per subscribe field, switching it when
// the field's stream changes identity. It returns the number of fields whose
// subscription was switched.
func (h *Host[T]) runSubscribe(st *hostState, host reflect.Value) int {
	c := h.class
	switched := 0

	for i, f := range c.subs {
		cur := fieldValue(host, f)
		sub := &st.subs[i]
		if sub.bound && sameIdentity(sub.stream, cur) {
			continue
		}

		// The old subscription is gone before the new stream is touched, so
		// two subscriptions never deliver into the same field at once.
		if sub.release != nil {
			release := sub.release
			sub.release = nil
			release()
			c.cfg.recorder.IncRelease(c.name, f.Name, KindSubscribe)
		}

		sub.bound = true
		sub.stream = snapshot(cur)
		switched++

		if isNil(cur) {
			c.cfg.logger.Debug("subscribe field cleared", "field", f.Name)
			continue
		}

		// Replaying streams emit inside Subscribe; that mark is expected.
		sub.release = subscribeStream(cur, h.onEmit)
		c.cfg.recorder.IncSubscribe(c.name, f.Name)
		c.cfg.logger.Debug("subscribed", "field", f.Name, "stream", cur.Type().String())
	}
	return switched
}

// onEmit is the callback installed on every subscribed stream.
func (h *Host[T]) onEmit() {
	if h.destroyed.Load() {
		return
	}
	h.markForCheck(SourceStream)
}

// releaseSubscriptions unsubscribes every live subscription, in field order.
func (h *Host[T]) releaseSubscriptions(st *hostState) int {
	c := h.class
	released := 0

	for i, f := range c.subs {
		sub := &st.subs[i]
		if sub.release == nil {
			continue
		}
		release := sub.release
		sub.release = nil
		release()
		released++
		c.cfg.recorder.IncRelease(c.name, f.Name, KindSubscribe)
	}
	return released
}
