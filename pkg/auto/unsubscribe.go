package auto

import (
	"io"
	"reflect"

	autoerr "github.com/vango-dev/auto/internal/errors"
)

// runUnsubscribe disposes the current value of every unsubscribe field:
// Complete first when supported, then Unsubscribe (or Close for resources
// that only implement io.Closer). Nil values are skipped. It returns the
// number of resources disposed.
func (h *Host[T]) runUnsubscribe(host reflect.Value) int {
	c := h.class
	disposed := 0

	for _, f := range c.unsubs {
		cur := fieldValue(host, f)
		if isNil(cur) {
			continue
		}
		res := cur.Interface()

		if completer, ok := res.(Completer); ok {
			completer.Complete()
		}

		switch r := res.(type) {
		case Unsubscriber:
			r.Unsubscribe()
		case io.Closer:
			if err := r.Close(); err != nil {
				c.cfg.recorder.IncCloseError(c.name, f.Name)
				c.cfg.logger.Warn("resource close failed",
					"field", f.Name,
					"error", autoerr.FromError(err, "A011").Error(),
				)
			}
		default:
			continue
		}

		disposed++
		c.cfg.recorder.IncRelease(c.name, f.Name, KindUnsubscribe)
		c.cfg.logger.Debug("disposed", "field", f.Name)
	}
	return disposed
}
