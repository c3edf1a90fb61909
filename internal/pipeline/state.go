package pipeline

import (
	"errors"
	"strings"
	"time"
)

// State is a step of the upload state machine.
type State string

const (
	StateParsed      State = "PARSED"
	StateAggregating State = "AGGREGATING"
	StateWaiting     State = "WAITING"
	StateReady       State = "READY"
	StatePublishing  State = "PUBLISHING"
	StateUpdating    State = "UPDATING"
	StateMerging     State = "MERGING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// ErrInvalidEvent is returned when an event lacks a link or filename.
var ErrInvalidEvent = errors.New("event requires a link and a filename")

// Event is one link arrival. ThumbnailPath optionally points at the release
// file on disk so a local thumbnail next to it can be found.
type Event struct {
	Link          string
	Filename      string
	ThumbnailPath string
}

func (e Event) normalized() Event {
	e.Link = strings.TrimSpace(e.Link)
	e.Filename = strings.TrimSpace(e.Filename)
	e.ThumbnailPath = strings.TrimSpace(e.ThumbnailPath)
	return e
}

// Result describes where an invocation ended.
//
// State is WAITING, DONE or FAILED. Action records the branch taken before
// DONE (PUBLISHING, UPDATING or MERGING); FailedAt is the state that was
// active when a failure occurred.
type Result struct {
	State    State
	Action   State
	FailedAt State

	Key     string
	Title   string
	Host    string
	Missing []string

	PostID       int64
	PostURL      string
	ChallengerID int64
	Merged       bool

	AggregateCleared bool
}

// DrainSummary counts what a queue drain did with each item.
type DrainSummary struct {
	Processed int
	Failed    int
	Discarded int
	Duration  time.Duration
}

// Total is the number of items the drain looked at.
func (s DrainSummary) Total() int {
	return s.Processed + s.Failed + s.Discarded
}
