package auto

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	autoerr "github.com/vango-dev/auto/internal/errors"
)

type counterHost struct {
	Count int `auto:"check"`
}

type pairHost struct {
	A int `auto:"check"`
	B int `auto:"check"`
}

type refHost struct {
	P     *point         `auto:"check"`
	Items []int          `auto:"check"`
	Attrs map[string]int `auto:"check"`
}

type streamHost struct {
	Source *spyStream `auto:"subscribe"`
}

type resourceHost struct {
	Resource *spyResource `auto:"unsubscribe"`
}

type closerHost struct {
	Conn *spyCloser `auto:"unsubscribe"`
}

type funcStreamHost struct {
	Feed *funcStream `auto:"subscribe"`
}

type leakyHost struct {
	Source *leakyStream `auto:"subscribe"`
}

type intStream interface {
	Subscribe(fn func(int)) *spyHandle
}

type interfaceHost struct {
	Source intStream
}

type embeddedHost struct {
	*Base
}

// hookedHost has its own lifecycle hooks and is annotated through options.
type hookedHost struct {
	log *[]string

	Count    int
	Source   *spyStream
	Resource *spyResource
}

func (h *hookedHost) OnCheck()   { *h.log = append(*h.log, "host.check") }
func (h *hookedHost) OnDestroy() { *h.log = append(*h.log, "host.destroy") }

// bareHost has lifecycle hooks and no annotated fields.
type bareHost struct {
	checks   int
	destroys int
}

func (h *bareHost) OnCheck()   { h.checks++ }
func (h *bareHost) OnDestroy() { h.destroys++ }

func defineHooked(t *testing.T, r *Registry, opts ...DefineOption) *Class[hookedHost] {
	t.Helper()
	opts = append([]DefineOption{
		Check("Count"),
		Subscribe("Source"),
		Unsubscribe("Resource"),
		WithLogger(discardLogger()),
	}, opts...)
	c, err := Define[hookedHost](r, opts...)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	return c
}

func TestCheckMarksOnChange(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[counterHost](NewRegistry())
	inst := &counterHost{Count: 0}
	h := class.Bind(inst, cd)

	inst.Count = 10
	h.OnCheck()

	if cd.n != 1 {
		t.Errorf("MarkForCheck calls = %d, want 1", cd.n)
	}
}

func TestCheckUnchangedDoesNotMark(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[counterHost](NewRegistry())
	h := class.Bind(&counterHost{Count: 3}, cd)

	h.OnCheck()
	first := cd.n
	h.OnCheck()
	h.OnCheck()

	if first != 1 {
		t.Errorf("first pass MarkForCheck calls = %d, want 1", first)
	}
	if cd.n != first {
		t.Errorf("unchanged passes called MarkForCheck %d more times", cd.n-first)
	}
}

func TestCheckMarksOncePerChange(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[counterHost](NewRegistry())
	inst := &counterHost{}
	h := class.Bind(inst, cd)
	h.OnCheck()

	inst.Count = 1
	h.OnCheck()
	if cd.n != 2 {
		t.Fatalf("MarkForCheck calls = %d, want 2", cd.n)
	}

	// Changing and restoring between passes is not a change.
	inst.Count = 5
	inst.Count = 1
	h.OnCheck()
	if cd.n != 2 {
		t.Errorf("MarkForCheck calls = %d, want 2", cd.n)
	}
}

func TestCheckMarksPerField(t *testing.T) {
	tests := []struct {
		name      string
		opts      []DefineOption
		firstPass int
		bothPass  int
	}{
		{"per field", nil, 2, 2},
		{"coalesced", []DefineOption{CoalesceChecks()}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := &countingDetector{}
			class := MustDefine[pairHost](NewRegistry(), tt.opts...)
			inst := &pairHost{}
			h := class.Bind(inst, cd)

			h.OnCheck()
			if cd.n != tt.firstPass {
				t.Fatalf("first pass calls = %d, want %d", cd.n, tt.firstPass)
			}

			inst.A, inst.B = 1, 2
			h.OnCheck()
			if got := cd.n - tt.firstPass; got != tt.bothPass {
				t.Errorf("two changed fields produced %d calls, want %d", got, tt.bothPass)
			}

			before := cd.n
			inst.B = 3
			h.OnCheck()
			if got := cd.n - before; got != 1 {
				t.Errorf("one changed field produced %d calls, want 1", got)
			}

			before = cd.n
			h.OnCheck()
			if cd.n != before {
				t.Errorf("unchanged pass produced %d calls", cd.n-before)
			}
		})
	}
}

func TestCheckComparesIdentity(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[refHost](NewRegistry(), CoalesceChecks())
	inst := &refHost{
		P:     &point{1, 2},
		Items: make([]int, 3, 8),
		Attrs: map[string]int{"a": 1},
	}
	h := class.Bind(inst, cd)
	h.OnCheck()
	cd.n = 0

	inst.P.X = 9
	inst.Items[0] = 9
	inst.Attrs["a"] = 9
	h.OnCheck()
	if cd.n != 0 {
		t.Errorf("in-place mutation marked %d times, want 0", cd.n)
	}

	inst.P = &point{inst.P.X, inst.P.Y}
	h.OnCheck()
	if cd.n != 1 {
		t.Errorf("equal but distinct pointer marked %d times, want 1", cd.n)
	}

	inst.Items = append(inst.Items, 4)
	h.OnCheck()
	if cd.n != 2 {
		t.Errorf("append marked %d times in total, want 2", cd.n)
	}

	inst.Attrs = map[string]int{"a": 9}
	h.OnCheck()
	if cd.n != 3 {
		t.Errorf("new map marked %d times in total, want 3", cd.n)
	}
}

func TestCheckPromotedThroughNilPointer(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[embeddedHost](NewRegistry())
	inst := &embeddedHost{}
	h := class.Bind(inst, cd)

	h.OnCheck()
	h.OnCheck()
	if cd.n != 1 {
		t.Fatalf("MarkForCheck calls = %d, want 1", cd.n)
	}

	inst.Base = &Base{Title: "hello"}
	h.OnCheck()
	if cd.n != 2 {
		t.Errorf("MarkForCheck calls = %d, want 2", cd.n)
	}
}

func TestSubscribeReplayAndEmissions(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[streamHost](NewRegistry())
	src := newSpyStream("src", nil, true, 0)
	h := class.Bind(&streamHost{Source: src}, cd)

	h.OnCheck()
	if src.subscribes != 1 {
		t.Errorf("Subscribe calls = %d, want 1", src.subscribes)
	}
	if cd.n != 1 {
		t.Errorf("MarkForCheck calls after replay = %d, want 1", cd.n)
	}

	src.Emit(10)
	src.Emit(20)
	src.Emit(30)
	if cd.n != 4 {
		t.Errorf("MarkForCheck calls = %d, want 4", cd.n)
	}
}

func TestSubscribeStableAcrossChecks(t *testing.T) {
	class := MustDefine[streamHost](NewRegistry())
	src := newSpyStream("src", nil, false, 0)
	h := class.Bind(&streamHost{Source: src}, &countingDetector{})

	h.OnCheck()
	h.OnCheck()
	h.OnCheck()

	if src.subscribes != 1 {
		t.Errorf("Subscribe calls = %d, want 1", src.subscribes)
	}
	if src.Active() != 1 {
		t.Errorf("active subscribers = %d, want 1", src.Active())
	}
	if !h.Subscribed("Source") {
		t.Error("Subscribed(Source) = false")
	}
}

func TestSubscribeSwitchesStreams(t *testing.T) {
	var log []string
	class := MustDefine[streamHost](NewRegistry())
	a := newSpyStream("a", &log, false, 0)
	b := newSpyStream("b", &log, false, 0)

	activeAtSwitch := -1
	b.onSubscribe = func() { activeAtSwitch = a.Active() }

	inst := &streamHost{Source: a}
	h := class.Bind(inst, &countingDetector{})
	h.OnCheck()

	inst.Source = b
	h.OnCheck()

	want := []string{"a.subscribe", "a.unsubscribe", "b.subscribe"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if activeAtSwitch != 0 {
		t.Errorf("old stream had %d subscribers when the new one subscribed, want 0", activeAtSwitch)
	}
	if a.Active() != 0 {
		t.Errorf("old stream subscribers = %d, want 0", a.Active())
	}
	if b.subscribes != 1 || b.Active() != 1 {
		t.Errorf("new stream subscribes=%d active=%d, want 1/1", b.subscribes, b.Active())
	}
}

func TestSubscribeNilReleases(t *testing.T) {
	class := MustDefine[streamHost](NewRegistry())
	src := newSpyStream("src", nil, false, 0)
	inst := &streamHost{Source: src}
	h := class.Bind(inst, &countingDetector{})
	h.OnCheck()

	inst.Source = nil
	h.OnCheck()
	if src.Active() != 0 {
		t.Errorf("subscribers after clearing field = %d, want 0", src.Active())
	}
	if h.Subscribed("Source") {
		t.Error("Subscribed(Source) should be false after clearing")
	}

	inst.Source = src
	h.OnCheck()
	if src.subscribes != 2 || src.Active() != 1 {
		t.Errorf("resubscribe: subscribes=%d active=%d, want 2/1", src.subscribes, src.Active())
	}
}

func TestSubscribeFuncHandle(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[funcStreamHost](NewRegistry())
	feed := newFuncStream()
	h := class.Bind(&funcStreamHost{Feed: feed}, cd)

	h.OnCheck()
	feed.Emit("tick")
	if cd.n != 1 {
		t.Errorf("MarkForCheck calls = %d, want 1", cd.n)
	}

	h.OnDestroy()
	if len(feed.observers) != 0 {
		t.Errorf("observers after destroy = %d, want 0", len(feed.observers))
	}
}

func TestSubscribeInterfaceField(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[interfaceHost](NewRegistry(), Subscribe("Source"))
	src := newSpyStream("src", nil, true, 7)
	inst := &interfaceHost{}
	h := class.Bind(inst, cd)

	h.OnCheck()
	if cd.n != 0 {
		t.Fatalf("nil interface stream marked %d times", cd.n)
	}

	inst.Source = src
	h.OnCheck()
	if src.Active() != 1 || cd.n != 1 {
		t.Errorf("active=%d marks=%d, want 1/1", src.Active(), cd.n)
	}

	h.OnDestroy()
	if src.Active() != 0 {
		t.Errorf("subscribers after destroy = %d, want 0", src.Active())
	}
}

func TestDestroyReleasesSubscriptions(t *testing.T) {
	class := MustDefine[streamHost](NewRegistry())
	src := newSpyStream("src", nil, true, 0)
	h := class.Bind(&streamHost{Source: src}, &countingDetector{})

	h.OnCheck()
	h.OnDestroy()

	if src.Active() != 0 {
		t.Errorf("subscribers after destroy = %d, want 0", src.Active())
	}
	if !h.Destroyed() {
		t.Error("Destroyed() = false")
	}
	if h.Subscribed("Source") {
		t.Error("Subscribed(Source) should be false after destroy")
	}
}

func TestEmissionAfterDestroyIgnored(t *testing.T) {
	cd := &countingDetector{}
	class := MustDefine[leakyHost](NewRegistry())
	src := &leakyStream{}
	h := class.Bind(&leakyHost{Source: src}, cd)

	h.OnCheck()
	src.Emit(1)
	if cd.n != 1 {
		t.Fatalf("MarkForCheck calls = %d, want 1", cd.n)
	}

	h.OnDestroy()
	src.Emit(2)
	if cd.n != 1 {
		t.Errorf("emission after destroy marked; calls = %d, want 1", cd.n)
	}
}

func TestUnsubscribeCompletesFirst(t *testing.T) {
	var log []string
	class := MustDefine[resourceHost](NewRegistry())
	res := &spyResource{name: "res", log: &log}
	h := class.Bind(&resourceHost{Resource: res}, &countingDetector{})

	h.OnDestroy()
	h.OnDestroy()

	want := []string{"res.complete", "res.unsubscribe"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if res.completes != 1 || res.unsubscribes != 1 {
		t.Errorf("completes=%d unsubscribes=%d, want 1/1", res.completes, res.unsubscribes)
	}
}

func TestUnsubscribeUsesCurrentValue(t *testing.T) {
	var log []string
	class := MustDefine[resourceHost](NewRegistry())
	old := &spyResource{name: "old", log: &log}
	inst := &resourceHost{Resource: old}
	h := class.Bind(inst, &countingDetector{})
	h.OnCheck()

	inst.Resource = &spyResource{name: "new", log: &log}
	h.OnDestroy()

	want := []string{"new.complete", "new.unsubscribe"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestUnsubscribeSkipsNil(t *testing.T) {
	class := MustDefine[resourceHost](NewRegistry())
	h := class.Bind(&resourceHost{}, &countingDetector{})
	h.OnDestroy()

	if !h.Destroyed() {
		t.Error("Destroyed() = false")
	}
}

func TestUnsubscribeCloserFallback(t *testing.T) {
	var buf bytes.Buffer
	rec := newSpyRecorder()
	class := MustDefine[closerHost](NewRegistry(),
		WithRecorder(rec),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	conn := &spyCloser{err: errCloseFailed}
	h := class.Bind(&closerHost{Conn: conn}, &countingDetector{})

	h.OnDestroy()

	if conn.closes != 1 {
		t.Errorf("Close calls = %d, want 1", conn.closes)
	}
	if rec.closeErrors != 1 {
		t.Errorf("close errors recorded = %d, want 1", rec.closeErrors)
	}
	out := buf.String()
	if !strings.Contains(out, "resource close failed") || !strings.Contains(out, "A011") {
		t.Errorf("log output = %q, want close failure with code A011", out)
	}
	if !strings.Contains(out, "field=Conn") {
		t.Errorf("log output = %q, want field attribute", out)
	}
}

func TestOriginalHooksRunFirst(t *testing.T) {
	var log []string
	class := defineHooked(t, NewRegistry())
	inst := &hookedHost{
		log:      &log,
		Source:   newSpyStream("src", &log, false, 0),
		Resource: &spyResource{name: "res", log: &log},
	}
	h := class.Bind(inst, &countingDetector{})

	h.OnCheck()
	h.OnDestroy()

	want := []string{
		"host.check", "src.subscribe",
		"host.destroy", "res.complete", "res.unsubscribe", "src.unsubscribe",
	}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestCheckAfterDestroyIsNoop(t *testing.T) {
	var log []string
	cd := &countingDetector{}
	class := defineHooked(t, NewRegistry())
	inst := &hookedHost{log: &log}
	h := class.Bind(inst, cd)

	h.OnDestroy()
	inst.Count = 42
	inst.Source = newSpyStream("src", &log, true, 0)
	h.OnCheck()

	if cd.n != 0 {
		t.Errorf("MarkForCheck calls = %d, want 0", cd.n)
	}
	if want := []string{"host.destroy"}; !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestZeroFieldClassPassesThrough(t *testing.T) {
	class := MustDefine[bareHost](NewRegistry())
	inst := &bareHost{}
	// No detector: a class without fields never marks.
	h := class.Bind(inst, nil)

	h.OnCheck()
	h.OnCheck()
	h.OnDestroy()

	if inst.checks != 2 || inst.destroys != 1 {
		t.Errorf("checks=%d destroys=%d, want 2/1", inst.checks, inst.destroys)
	}
}

func TestDestroyBeforeFirstCheck(t *testing.T) {
	var log []string
	class := defineHooked(t, NewRegistry())
	src := newSpyStream("src", &log, true, 0)
	res := &spyResource{name: "res", log: &log}
	h := class.Bind(&hookedHost{log: &log, Source: src, Resource: res}, &countingDetector{})

	h.OnDestroy()

	if src.subscribes != 0 {
		t.Errorf("Subscribe calls = %d, want 0", src.subscribes)
	}
	want := []string{"host.destroy", "res.complete", "res.unsubscribe"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestDefineIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c1 := MustDefine[counterHost](r)
	c2 := MustDefine[counterHost](r, Check("Count"))
	if c1 != c2 {
		t.Error("Define should return the same class for the same type and registry")
	}
	if got := len(c1.Fields(KindCheck)); got != 1 {
		t.Errorf("check fields = %d, want 1", got)
	}

	inst := &counterHost{}
	h1 := c1.Bind(inst, &countingDetector{})
	h2 := c1.Bind(inst, &countingDetector{})
	if h1 != h2 {
		t.Error("Bind should return the same host for the same instance")
	}
	if got, ok := c1.Host(inst); !ok || got != h1 {
		t.Error("Host(inst) should return the bound host")
	}
	if c1.ActiveHosts() != 1 {
		t.Errorf("ActiveHosts() = %d, want 1", c1.ActiveHosts())
	}

	if other := MustDefine[counterHost](NewRegistry()); other == c1 {
		t.Error("a different registry should produce a different class")
	}
}

func TestRegistrationAfterBindFails(t *testing.T) {
	r := NewRegistry()
	var log []string
	class, err := Define[hookedHost](r, Check("Count"))
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	class.Bind(&hookedHost{log: &log}, &countingDetector{})

	if !r.Frozen(reflect.TypeFor[hookedHost]()) {
		t.Error("class should be frozen after Bind")
	}
	if _, err := Define[hookedHost](r, Check("Count")); err != nil {
		t.Errorf("re-registering an existing field should succeed, got %v", err)
	}

	_, err = Define[hookedHost](r, Subscribe("Source"))
	if !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("Define after Bind error = %v, want ErrRegistryFrozen", err)
	}
	var coded *autoerr.Error
	if !errors.As(err, &coded) || coded.Code != "A006" {
		t.Errorf("error = %v, want code A006", err)
	}
}

func TestDefineRejectsNonStruct(t *testing.T) {
	if _, err := Define[int](NewRegistry()); !errors.Is(err, ErrNotStruct) {
		t.Errorf("Define[int] error = %v, want ErrNotStruct", err)
	}
	if _, err := Define[*counterHost](NewRegistry()); !errors.Is(err, ErrNotStruct) {
		t.Errorf("Define[*counterHost] error = %v, want ErrNotStruct", err)
	}
	if _, err := Define[badTagHost](NewRegistry()); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Define[badTagHost] error = %v, want ErrUnknownKind", err)
	}
}

func TestMustDefinePanicsOnConflict(t *testing.T) {
	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrFieldConflict) {
			t.Errorf("recover() = %v, want ErrFieldConflict", rec)
		}
	}()
	MustDefine[streamHost](NewRegistry(), Check("Source"))
}

func TestMissingChangeDetectorPanics(t *testing.T) {
	class := MustDefine[counterHost](NewRegistry())
	h := class.Bind(&counterHost{}, nil)

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok {
			t.Fatalf("recover() = %v, want error", rec)
		}
		if !errors.Is(err, ErrNoChangeDetector) {
			t.Errorf("panic error = %v, want ErrNoChangeDetector", err)
		}
		var coded *autoerr.Error
		if !errors.As(err, &coded) || coded.Code != "A010" {
			t.Errorf("panic error = %v, want code A010", err)
		}
	}()
	h.OnCheck()
}

func TestBindNilInstancePanics(t *testing.T) {
	class := MustDefine[counterHost](NewRegistry())
	defer func() {
		if recover() == nil {
			t.Error("Bind(nil) should panic")
		}
	}()
	class.Bind(nil, &countingDetector{})
}

func TestChangeDetectorFunc(t *testing.T) {
	calls := 0
	class := MustDefine[counterHost](NewRegistry())
	h := class.Bind(&counterHost{}, ChangeDetectorFunc(func() { calls++ }))

	h.OnCheck()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRecorderHooks(t *testing.T) {
	var log []string
	rec := newSpyRecorder()
	class := defineHooked(t, NewRegistry(), WithRecorder(rec))
	inst := &hookedHost{
		log:      &log,
		Source:   newSpyStream("src", &log, true, 0),
		Resource: &spyResource{name: "res", log: &log},
	}
	h := class.Bind(inst, &countingDetector{})
	if rec.active != 1 {
		t.Errorf("active hosts after Bind = %d, want 1", rec.active)
	}

	h.OnCheck()
	inst.Source.Emit(1)
	if rec.marks[SourceCheck] != 1 || rec.marks[SourceStream] != 2 {
		t.Errorf("marks = %v, want check:1 stream:2", rec.marks)
	}
	if rec.subscribes != 1 || rec.passes[PassCheck] != 1 {
		t.Errorf("subscribes=%d check passes=%d, want 1/1", rec.subscribes, rec.passes[PassCheck])
	}

	h.OnDestroy()
	if rec.releases[KindSubscribe] != 1 || rec.releases[KindUnsubscribe] != 1 {
		t.Errorf("releases = %v, want one per kind", rec.releases)
	}
	if rec.passes[PassDestroy] != 1 {
		t.Errorf("destroy passes = %d, want 1", rec.passes[PassDestroy])
	}
	if rec.active != 0 || class.ActiveHosts() != 0 {
		t.Errorf("active hosts after destroy = %d/%d, want 0", rec.active, class.ActiveHosts())
	}
	if _, ok := class.Host(inst); ok {
		t.Error("destroyed host should be unbound")
	}
}
