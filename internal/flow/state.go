// Package flow implements the operator conversations that change reading
// files: adding a reading (new, reread or update of the latest read) and
// editing or deleting a single file.
package flow

import (
	"fmt"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/slug"
)

// State is a step of the add conversation.
type State int

const (
	CollectingBasics State = iota
	CheckingExisting
	Creating
	Deciding
	CollectingMetadata
	CollectingImage
	Previewing
	Persisted
	Aborted
)

var stateNames = [...]string{
	CollectingBasics:   "collecting-basics",
	CheckingExisting:   "checking-existing",
	Creating:           "creating",
	Deciding:           "deciding",
	CollectingMetadata: "collecting-metadata",
	CollectingImage:    "collecting-image",
	Previewing:         "previewing",
	Persisted:          "persisted",
	Aborted:            "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Action is what a completed flow did to the content directory.
type Action string

const (
	ActionCreated Action = "created"
	ActionReread  Action = "reread"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// plan is the write target a decision resolves to.
type plan struct {
	base     string
	existing []string
	target   string
	action   Action
}

// Decision is the operator's answer when a work has been read before.
// The set of decisions is closed: each one resolves the plan itself, so a
// new decision cannot be added without saying what it does.
type Decision interface {
	fmt.Stringer
	resolve(p *plan) error
}

// Reread records a new, separately numbered reading.
type Reread struct{}

// Update rewrites the most recent existing reading in place.
type Update struct{}

// Cancel abandons the flow without touching anything.
type Cancel struct{}

// Decisions lists the choices in the order they are offered.
var Decisions = []Decision{Reread{}, Update{}, Cancel{}}

func (Reread) String() string { return "reread" }
func (Update) String() string { return "update" }
func (Cancel) String() string { return "cancel" }

func (Reread) resolve(p *plan) error {
	p.target = slug.NextFilename(p.base, p.existing)
	p.action = ActionReread
	return nil
}

func (Update) resolve(p *plan) error {
	if len(p.existing) == 0 {
		return fmt.Errorf("flow: %w: no reading of %q to update", apperr.ErrNotFound, p.base)
	}
	p.target = p.existing[len(p.existing)-1]
	p.action = ActionUpdated
	return nil
}

func (Cancel) resolve(*plan) error {
	return apperr.ErrCancelled
}
