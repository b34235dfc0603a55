package auto

import "reflect"

// runChecks compares every check field with its snapshot by identity and
// marks for check on change. It returns the number of MarkForCheck calls.
func (h *Host[T]) runChecks(st *hostState, host reflect.Value) int {
	coalesce := h.class.cfg.coalesce
	marks, changed := 0, 0

	for i, f := range h.class.checks {
		cur := fieldValue(host, f)
		if st.seen[i] && sameIdentity(st.last[i], cur) {
			continue
		}
		changed++
		if !coalesce {
			h.markForCheck(SourceCheck)
			marks++
		}
		st.seen[i] = true
		st.last[i] = snapshot(cur)
	}

	if coalesce && changed > 0 {
		h.markForCheck(SourceCheck)
		marks++
	}
	return marks
}
