package auto

import (
	"io"
	"reflect"
)

// ChangeDetector is the render scheduler capability injected per host.
type ChangeDetector interface {
	MarkForCheck()
}

// ChangeDetectorFunc adapts a function to ChangeDetector.
type ChangeDetectorFunc func()

// MarkForCheck calls f.
func (f ChangeDetectorFunc) MarkForCheck() { f() }

// Checker is implemented by hosts with their own on-check logic.
type Checker interface {
	OnCheck()
}

// Destroyer is implemented by hosts with their own on-destroy logic.
type Destroyer interface {
	OnDestroy()
}

// Lifecycle is the contract a host runtime drives: OnCheck zero or more
// times, OnDestroy once, never concurrently.
type Lifecycle interface {
	Checker
	Destroyer
}

// Unsubscriber is a subscription handle or disposable resource.
type Unsubscriber interface {
	Unsubscribe()
}

// Completer is implemented by resources that can signal end-of-stream.
type Completer interface {
	Complete()
}

var (
	unsubscriberType = reflect.TypeFor[Unsubscriber]()
	closerType       = reflect.TypeFor[io.Closer]()
)

// isStreamType reports whether t has a method
//
//	Subscribe(func(V)) H
//
// where H is a func() or implements Unsubscriber.
func isStreamType(t reflect.Type) bool {
	m, ok := t.MethodByName("Subscribe")
	if !ok {
		return false
	}
	mt := m.Type
	in := 1 // receiver
	if t.Kind() == reflect.Interface {
		in = 0
	}
	if mt.IsVariadic() || mt.NumIn() != in+1 || mt.NumOut() != 1 {
		return false
	}
	cb := mt.In(in)
	if cb.Kind() != reflect.Func || cb.IsVariadic() || cb.NumIn() != 1 || cb.NumOut() != 0 {
		return false
	}
	return isHandleType(mt.Out(0))
}

func isHandleType(h reflect.Type) bool {
	if h.Kind() == reflect.Func {
		return h.NumIn() == 0 && h.NumOut() == 0
	}
	return h.Implements(unsubscriberType)
}

func isDisposableType(t reflect.Type) bool {
	return t.Implements(unsubscriberType) || t.Implements(closerType)
}

func supportsKind(t reflect.Type, kind Kind) bool {
	switch kind {
	case KindSubscribe:
		return isStreamType(t)
	case KindUnsubscribe:
		return isDisposableType(t)
	default:
		return true
	}
}

// subscribeStream calls Subscribe on stream with a callback that invokes
// onEmit for every value and returns the release function of the handle.
func subscribeStream(stream reflect.Value, onEmit func()) func() {
	if stream.Kind() == reflect.Interface {
		stream = stream.Elem()
	}
	method := stream.MethodByName("Subscribe")
	cb := reflect.MakeFunc(method.Type().In(0), func([]reflect.Value) []reflect.Value {
		onEmit()
		return nil
	})
	return releaseFunc(method.Call([]reflect.Value{cb})[0])
}

func releaseFunc(handle reflect.Value) func() {
	if isNil(handle) {
		return func() {}
	}
	if handle.Kind() == reflect.Func {
		return func() { handle.Call(nil) }
	}
	return handle.Interface().(Unsubscriber).Unsubscribe
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
