package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quillnote/internal/db"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]UpdateCommand
}

func (r *flushRecorder) flush(cmds []UpdateCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, cmds)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *flushRecorder) lastPatch() db.NoteFieldPatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var patch db.NoteFieldPatch
	for _, cmd := range r.batches[len(r.batches)-1] {
		cmd.applyTo(&patch)
	}
	return patch
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAutosave_BurstCoalescesToOneFlush(t *testing.T) {
	rec := &flushRecorder{}
	s := NewAutosaveScheduler(30*time.Millisecond, rec.flush)
	defer s.Close()

	// A typing burst: each keystroke replaces the pending content.
	for _, text := range []string{"h", "he", "hel", "hell", "hello"} {
		s.Edit(SetContent{Content: text})
		time.Sleep(2 * time.Millisecond)
	}
	s.Edit(SetTitle{Title: "Greeting"})

	waitFor(t, func() bool { return rec.count() == 1 })

	patch := rec.lastPatch()
	require.NotNil(t, patch.Content)
	assert.Equal(t, "hello", *patch.Content, "only the final content is flushed")
	require.NotNil(t, patch.Title)
	assert.Equal(t, "Greeting", *patch.Title)

	// No stray second flush once the batch is drained.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestAutosave_EditDuringFlushRearms(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &flushRecorder{}

	s := NewAutosaveScheduler(10*time.Millisecond, func(cmds []UpdateCommand) {
		rec.flush(cmds)
		if rec.count() == 1 {
			close(started)
			<-release
		}
	})
	defer s.Close()

	s.Edit(SetContent{Content: "first"})
	<-started

	// Arrives while the first flush is still running.
	s.Edit(SetContent{Content: "second"})
	close(release)

	waitFor(t, func() bool { return rec.count() == 2 })
	patch := rec.lastPatch()
	require.NotNil(t, patch.Content)
	assert.Equal(t, "second", *patch.Content)
}

func TestAutosave_FlushForcesImmediately(t *testing.T) {
	rec := &flushRecorder{}
	s := NewAutosaveScheduler(time.Hour, rec.flush)
	defer s.Close()

	s.Edit(SetTags{Tags: []string{"todo"}})
	s.Flush()

	require.Equal(t, 1, rec.count())
	patch := rec.lastPatch()
	require.NotNil(t, patch.Tags)
	assert.Equal(t, []string{"todo"}, *patch.Tags)

	t.Run("nothing pending is a no-op", func(t *testing.T) {
		s.Flush()
		assert.Equal(t, 1, rec.count())
	})
}

func TestAutosave_CloseDiscardsPending(t *testing.T) {
	rec := &flushRecorder{}
	s := NewAutosaveScheduler(20*time.Millisecond, rec.flush)

	s.Edit(SetContent{Content: "unsaved"})
	s.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count(), "closing cancels the pending flush")

	s.Edit(SetContent{Content: "after close"})
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count(), "edits after close are dropped")
}
