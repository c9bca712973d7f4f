/*
Package canvas contains the core state for shared drawing rooms.

This file defines the History struct, the authoritative undo/redo state machine
for one room. A room has exactly one shared timeline: any user's undo moves the
same pointer, regardless of who drew the strokes.
*/
package canvas

import (
	"fmt"
	"sync"

	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/errs"
)

// History holds one room's ordered stroke log and its undo/redo pointer.
//
// The pointer ranges over [-1, len(log)-1]; -1 means a blank canvas. Strokes
// at indexes [0, pointer] are visible; strokes after the pointer are the redo
// tail. Undo and redo only move the pointer, so redo comes for free after an
// undo. Committing while a redo tail exists discards the tail first.
//
// All methods are safe for concurrent use; a History serializes its own
// mutations, and no operation blocks on I/O.
type History struct {
	mu      sync.Mutex
	log     []Stroke
	pointer int
	limit   int
}

// Summary reports observable counters for one room's history.
type Summary struct {
	// TotalStrokes is the full log length, including the redo tail.
	TotalStrokes int `json:"totalStrokes"`

	// VisibleStrokes is the number of strokes currently rendered.
	VisibleStrokes int `json:"visibleStrokes"`

	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// NewHistory creates an empty History with the given stroke cap.
// The cap bounds memory per room; when the log exceeds it, the oldest entries
// are dropped from the front. A cap below 1 is a caller contract violation.
func NewHistory(limit int) *History {
	if limit < 1 {
		panic(fmt.Sprintf("canvas: history limit must be at least 1, got %d", limit))
	}

	return &History{
		log:     make([]Stroke, 0),
		pointer: -1,
		limit:   limit,
	}
}

// Commit appends a completed stroke to the history and returns it.
//
// If strokes have been undone, the redo tail is discarded first (a new edit
// kills the redo future). If the log then exceeds the cap, the oldest excess
// entries are dropped from the front and the pointer shifts down with them.
// Commit never fails; malformed strokes are the transport layer's problem.
func (h *History) Commit(s Stroke) Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer < len(h.log)-1 {
		h.log = h.log[:h.pointer+1]
	}

	h.log = append(h.log, s)
	h.pointer = len(h.log) - 1

	if excess := len(h.log) - h.limit; excess > 0 {
		// Copy instead of re-slicing so the dropped strokes can be collected.
		h.log = append(make([]Stroke, 0, h.limit), h.log[excess:]...)
		h.pointer -= excess
		if h.pointer < -1 {
			h.pointer = -1
		}
	}

	return s
}

// Undo steps the pointer back one stroke and returns the new visible slice.
// It fails with ErrNothingToUndo on a blank canvas. The undone stroke stays in
// the log so a subsequent Redo can restore it.
func (h *History) Undo() ([]Stroke, *errs.CustomError) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer < 0 {
		return nil, errs.NewError(errs.ErrNothingToUndo)
	}

	h.pointer--

	return h.visibleLocked(), nil
}

// Redo steps the pointer forward one stroke and returns the new visible slice.
// It fails with ErrNothingToRedo when there is no redo tail.
func (h *History) Redo() ([]Stroke, *errs.CustomError) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer >= len(h.log)-1 {
		return nil, errs.NewError(errs.ErrNothingToRedo)
	}

	h.pointer++

	return h.visibleLocked(), nil
}

// CanUndo reports whether any visible stroke remains to undo.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pointer >= 0
}

// CanRedo reports whether an undone stroke is available to restore.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pointer < len(h.log)-1
}

// VisibleStrokes returns a copy of the strokes that should currently be
// rendered, in commit order. Empty on a blank canvas.
func (h *History) VisibleStrokes() []Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.visibleLocked()
}

// Clear wipes the log and resets the pointer to the blank canvas.
// There is no undo-of-clear; the reset is irreversible.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log = make([]Stroke, 0)
	h.pointer = -1
}

// Summary returns the observable counters for this history.
func (h *History) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Summary{
		TotalStrokes:   len(h.log),
		VisibleStrokes: h.pointer + 1,
		CanUndo:        h.pointer >= 0,
		CanRedo:        h.pointer < len(h.log)-1,
	}
}

// visibleLocked returns a copy of log[0..pointer]. Callers must hold mu.
func (h *History) visibleLocked() []Stroke {
	visible := make([]Stroke, h.pointer+1)
	copy(visible, h.log[:h.pointer+1])
	return visible
}
