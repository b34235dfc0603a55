package auto

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordingTracer keeps every span it starts.
type recordingTracer struct {
	noop.Tracer
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{name: name, attrs: map[attribute.Key]attribute.Value{}}
	s.SetAttributes(cfg.Attributes()...)
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }
func (s *recordingSpan) End(...trace.SpanEndOption)          { s.ended = true }

type tracedHost struct {
	Count  int        `auto:"check"`
	Source *spyStream `auto:"subscribe"`
}

func TestHostSpans(t *testing.T) {
	var log []string
	tracer := &recordingTracer{}
	class := MustDefine[tracedHost](NewRegistry(), WithTracer(tracer), WithLogger(discardLogger()))
	h := class.Bind(&tracedHost{Source: newSpyStream("src", &log, false, 0)}, &countingDetector{})

	h.OnCheck()
	h.OnDestroy()

	if len(tracer.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tracer.spans))
	}

	tests := []struct {
		name  string
		attrs map[string]int64
	}{
		{"auto.check", map[string]int64{"auto.marks": 1, "auto.switched": 1}},
		{"auto.destroy", map[string]int64{"auto.disposed": 0, "auto.released": 1}},
	}
	for i, tt := range tests {
		s := tracer.spans[i]
		if s.name != tt.name {
			t.Errorf("span[%d] name = %q, want %q", i, s.name, tt.name)
		}
		if got := s.attrs["auto.class"].AsString(); got != class.Name() {
			t.Errorf("%s auto.class = %q, want %q", tt.name, got, class.Name())
		}
		for key, want := range tt.attrs {
			v, ok := s.attrs[attribute.Key(key)]
			if !ok {
				t.Errorf("%s missing attribute %s", tt.name, key)
				continue
			}
			if v.AsInt64() != want {
				t.Errorf("%s %s = %d, want %d", tt.name, key, v.AsInt64(), want)
			}
		}
		if s.status != codes.Ok {
			t.Errorf("%s status = %v, want Ok", tt.name, s.status)
		}
		if !s.ended {
			t.Errorf("%s was not ended", tt.name)
		}
	}
}

func TestZeroFieldClassStartsNoSpans(t *testing.T) {
	tracer := &recordingTracer{}
	class := MustDefine[bareHost](NewRegistry(), WithTracer(tracer))
	h := class.Bind(&bareHost{}, nil)

	h.OnCheck()
	h.OnDestroy()

	if len(tracer.spans) != 0 {
		t.Errorf("spans = %d, want 0 for a class without fields", len(tracer.spans))
	}
}
