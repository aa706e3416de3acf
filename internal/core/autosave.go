package core

import (
	"sync"
	"time"

	"github.com/example/quillnote/internal/db"
)

// FlushFunc persists a coalesced batch of editor commands.
type FlushFunc func(cmds []UpdateCommand)

// AutosaveScheduler debounces editor keystrokes into periodic flushes. Edits
// within the delay window coalesce into a single pending batch, later values
// per field replacing earlier ones. At most one flush runs at a time; edits
// arriving mid-flight are held and rearm the timer once the flush returns.
// Close drops whatever is pending without flushing, matching an editor that
// discards unsaved input on navigation.
type AutosaveScheduler struct {
	mu       sync.Mutex
	delay    time.Duration
	flush    FlushFunc
	timer    *time.Timer
	pending  db.NoteFieldPatch
	inFlight bool
	rearm    bool
	closed   bool
}

// NewAutosaveScheduler creates a scheduler that calls flush once per quiet
// period of the given delay.
func NewAutosaveScheduler(delay time.Duration, flush FlushFunc) *AutosaveScheduler {
	return &AutosaveScheduler{delay: delay, flush: flush}
}

// Edit records commands into the pending batch and restarts the debounce
// timer. Calling Edit after Close is a no-op.
func (a *AutosaveScheduler) Edit(cmds ...UpdateCommand) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || len(cmds) == 0 {
		return
	}
	for _, cmd := range cmds {
		cmd.applyTo(&a.pending)
	}
	if a.inFlight {
		a.rearm = true
		return
	}
	a.resetTimerLocked()
}

// Flush forces an immediate flush of the pending batch, bypassing the timer.
// It is a no-op when nothing is pending.
func (a *AutosaveScheduler) Flush() {
	a.mu.Lock()
	if a.closed || a.inFlight {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.fire()
}

// Close cancels any pending timer and discards unsaved edits.
func (a *AutosaveScheduler) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = db.NoteFieldPatch{}
	a.rearm = false
}

func (a *AutosaveScheduler) resetTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutosaveScheduler) fire() {
	a.mu.Lock()
	if a.closed || a.inFlight {
		a.mu.Unlock()
		return
	}
	cmds := drainPatch(&a.pending)
	if len(cmds) == 0 {
		a.mu.Unlock()
		return
	}
	a.inFlight = true
	a.timer = nil
	a.mu.Unlock()

	a.flush(cmds)

	a.mu.Lock()
	a.inFlight = false
	if a.rearm && !a.closed {
		a.rearm = false
		a.resetTimerLocked()
	}
	a.mu.Unlock()
}

// drainPatch converts the coalesced pending state back into commands and
// clears it.
func drainPatch(p *db.NoteFieldPatch) []UpdateCommand {
	var cmds []UpdateCommand
	if p.Title != nil {
		cmds = append(cmds, SetTitle{Title: *p.Title})
	}
	if p.Content != nil {
		cmds = append(cmds, SetContent{Content: *p.Content})
	}
	if p.Tags != nil {
		cmds = append(cmds, SetTags{Tags: *p.Tags})
	}
	*p = db.NoteFieldPatch{}
	return cmds
}
