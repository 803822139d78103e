package fsm

import "time"

// Transition describes one state change.
type Transition struct {
	Device string
	Kind   string
	From   string
	To     string
	Event  Event
	At     time.Time
}

// Notice is a condition reported by a policy hook.
type Notice struct {
	Device  string
	Kind    string
	State   string
	Code    string
	Message string
	Fields  map[string]any
	At      time.Time
}

// Report summarizes a finished step.
type Report struct {
	Device   string
	Kind     string
	State    string
	Event    Event
	Verdict  Verdict
	Facts    map[string]any
	Finished time.Time
}

// Observer receives what the engine did. Calls happen on the engine's
// owner goroutine, synchronously, so implementations must be quick.
// Within a step, Transitioned precedes notices raised by the new state's
// entry, and Stepped comes last.
type Observer interface {
	Transitioned(t Transition)
	Rejected(err *RejectedError)
	Noticed(n Notice)
	Stepped(r Report)
}

// NopObserver can be embedded to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) Transitioned(Transition) {}
func (NopObserver) Rejected(*RejectedError) {}
func (NopObserver) Noticed(Notice) {}
func (NopObserver) Stepped(Report) {}

// Recorder keeps everything it observes. Used by tests and the scenario runner.
type Recorder struct {
	Transitions []Transition
	Rejections  []*RejectedError
	Notices     []Notice
	Reports     []Report
}

func (r *Recorder) Transitioned(t Transition) { r.Transitions = append(r.Transitions, t) }
func (r *Recorder) Rejected(err *RejectedError) { r.Rejections = append(r.Rejections, err) }
func (r *Recorder) Noticed(n Notice) { r.Notices = append(r.Notices, n) }
func (r *Recorder) Stepped(rep Report) { r.Reports = append(r.Reports, rep) }

// EntriesInto counts transitions that entered the named state.
func (r *Recorder) EntriesInto(state string) int {
	n := 0
	for _, t := range r.Transitions {
		if t.To == state {
			n++
		}
	}
	return n
}

// NoticesWithCode returns the notices carrying code.
func (r *Recorder) NoticesWithCode(code string) []Notice {
	var out []Notice
	for _, n := range r.Notices {
		if n.Code == code {
			out = append(out, n)
		}
	}
	return out
}
