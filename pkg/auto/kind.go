package auto

import "fmt"

// Kind identifies the behavior applied to an annotated field.
type Kind uint8

const (
	KindCheck Kind = iota + 1
	KindSubscribe
	KindUnsubscribe
)

// String returns the annotation name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCheck:
		return "check"
	case KindSubscribe:
		return "subscribe"
	case KindUnsubscribe:
		return "unsubscribe"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindCheck && k <= KindUnsubscribe
}

// ParseKind parses an annotation name as used in `auto:"..."` struct tags.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "check":
		return KindCheck, true
	case "subscribe":
		return KindSubscribe, true
	case "unsubscribe":
		return KindUnsubscribe, true
	default:
		return 0, false
	}
}
