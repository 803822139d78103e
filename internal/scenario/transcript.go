package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"device_controller/internal/fsm"
)

const timeLayout = "15:04:05"

// transcript renders observer callbacks as text. Lines produced while an
// event is being stepped are held until the step's report arrives, so every
// block starts with the event that caused it.
type transcript struct {
	b       strings.Builder
	pending []string
}

var _ fsm.Observer = (*transcript)(nil)

func (t *transcript) Transitioned(tr fsm.Transition) {
	t.note("move %s -> %s", tr.From, tr.To)
}

func (t *transcript) Rejected(err *fsm.RejectedError) {
	t.note("reject %s: %s", err.Event, err.Reason)
}

func (t *transcript) Noticed(n fsm.Notice) {
	line := n.Code + ": " + n.Message
	if kv := formatFields(n.Fields); kv != "" {
		line += " " + kv
	}
	t.note("%s", "notice "+line)
}

func (t *transcript) Stepped(r fsm.Report) {
	fmt.Fprintf(&t.b, "%s %s\n", r.Finished.Format(timeLayout), describe(r.Event))
	for _, l := range t.pending {
		t.b.WriteString("  " + l + "\n")
	}
	t.pending = t.pending[:0]

	line := fmt.Sprintf("  = %s (%s)", r.State, r.Verdict)
	if kv := formatFields(r.Facts); kv != "" {
		line += " " + kv
	}
	t.b.WriteString(line + "\n")
}

// note queues a line for the step in progress.
func (t *transcript) note(format string, args ...any) {
	t.pending = append(t.pending, fmt.Sprintf(format, args...))
}

// say writes a line outside of any step.
func (t *transcript) say(format string, args ...any) {
	fmt.Fprintf(&t.b, format+"\n", args...)
}

func (t *transcript) String() string { return t.b.String() }

func describe(ev fsm.Event) string {
	switch ev.Kind {
	case fsm.KindTick:
		s := ev.Snapshot
		return fmt.Sprintf("tick temperature=%d water=%t fault=%t", s.Temperature, s.WaterPresent, s.Fault)
	case fsm.KindCredentialChar:
		return "char " + string(ev.Char)
	case fsm.KindSelectFunction:
		return "select " + strconv.Itoa(ev.Function)
	case fsm.KindTimerFired:
		return "timer_fired " + ev.Token.Purpose
	case fsm.KindOverride:
		return "override " + strconv.Quote(ev.Reason)
	default:
		return ev.Kind.String()
	}
}

// formatFields renders k=v pairs sorted by key. Token values vary per run
// and are printed as "armed".
func formatFields(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var v string
		switch val := m[k].(type) {
		case string:
			if strings.HasSuffix(k, "_token") {
				v = "armed"
			} else {
				v = strconv.Quote(val)
			}
		default:
			v = fmt.Sprint(val)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
