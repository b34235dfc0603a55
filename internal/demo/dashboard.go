package demo

import (
	"github.com/vango-dev/auto/pkg/auto"
	"github.com/vango-dev/auto/pkg/stream"
)

// Dashboard shows the latest tick of a feed.
//
// Value is bridged from Feed by Bridge. Label is derived from Value on every
// check, so a new tick marks the dashboard twice: once when Value emits and
// once when Label changes on the next pass.
type Dashboard struct {
	Label  string                   `auto:"check"`
	Value  *stream.Behavior[string] `auto:"subscribe"`
	Bridge *stream.Subscription     `auto:"unsubscribe"`
	Feed   *stream.Feed             `auto:"unsubscribe"`

	checks int
}

// OnCheck derives the label from the latest value.
func (d *Dashboard) OnCheck() {
	d.checks++
	if v := d.Value.Value(); v != "" {
		d.Label = "tick " + v
	} else {
		d.Label = "waiting"
	}
}

// NewDashboard creates a dashboard following feed.
func NewDashboard(feed *stream.Feed) *Dashboard {
	value := stream.NewBehavior("")
	bridge := feed.Subscribe(func(m stream.Message) {
		value.Next(m.Text())
	})
	return &Dashboard{
		Value:  value,
		Bridge: bridge,
		Feed:   feed,
	}
}

// Define defines the Dashboard class on r.
func Define(r *auto.Registry, opts ...auto.DefineOption) (*auto.Class[Dashboard], error) {
	return auto.Define[Dashboard](r, opts...)
}
