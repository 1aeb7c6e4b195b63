// Package status carries progress and outcome messages of a check to
// whatever shows them.
package status

import (
	"sync"
)

// State is where a check currently is.
type State int

const (
	Idle State = iota
	LoadingLibrary
	LoadingDocument
	CheckingPages
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingLibrary:
		return "loading-library"
	case LoadingDocument:
		return "loading-document"
	case CheckingPages:
		return "checking-pages"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool { return s == Success || s == Failure }

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Reporter receives status updates. Only the latest message matters.
type Reporter interface {
	Report(state State, msg string)
}

// Discard drops every message.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(State, string) {}

// Snapshot is what a Display currently shows.
type Snapshot struct {
	Invocation uint64 `json:"invocation"`
	State      State  `json:"state"`
	Message    string `json:"message"`
}

// Display is a single status location shared by concurrent checks. Each
// check starts an Invocation; only the most recently started one may write,
// so a slow stale check never overwrites the result of a newer one.
type Display struct {
	mu     sync.Mutex
	latest uint64
	shown  Snapshot
}

// Invocation is a Reporter bound to one check on a Display.
type Invocation struct {
	d  *Display
	id uint64
}

// Begin registers a new check and makes it the latest.
func (d *Display) Begin() *Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest++
	return &Invocation{d: d, id: d.latest}
}

func (d *Display) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

func (i *Invocation) ID() uint64 { return i.id }

// Report overwrites the display unless a newer invocation has started.
func (i *Invocation) Report(state State, msg string) {
	d := i.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if i.id != d.latest {
		return
	}
	d.shown = Snapshot{Invocation: i.id, State: state, Message: msg}
}

// Func adapts a function to a Reporter.
type Func func(State, string)

func (f Func) Report(state State, msg string) { f(state, msg) }
