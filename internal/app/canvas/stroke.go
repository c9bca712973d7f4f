/*
Package canvas contains the core state for shared drawing rooms: the stroke data
contracts, the per-room undo/redo history, and the registry that owns room
lifecycles.

This file defines the Stroke entity. A stroke is one completed continuous
drawing gesture, committed to room history as an atomic unit.
*/
package canvas

// Tool identifies the drawing tool that produced a stroke.
type Tool string

const (
	// ToolBrush draws with the user-selected color and width.
	ToolBrush Tool = "brush"

	// ToolEraser draws in the canvas background color with a widened stroke.
	ToolEraser Tool = "eraser"
)

const (
	// EraserColor is the fixed background color erasers paint with.
	EraserColor = "#FFFFFF"

	// EraserWidthFactor widens eraser strokes relative to the selected width.
	EraserWidthFactor = 3
)

// Point is a single 2D canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a single completed drawing action. Once committed to a room's
// history a Stroke is never mutated, only truncated away with the rest of its
// log entry. Field names on the wire match the original drawing client.
type Stroke struct {
	// ID uniquely identifies the stroke within its room.
	ID string `json:"id"`

	// Tool is the drawing tool used ("brush" or "eraser").
	Tool Tool `json:"tool"`

	// Color is the resolved final color. Eraser strokes always carry EraserColor.
	Color string `json:"color"`

	// StrokeWidth is the resolved line width in pixels, always positive.
	StrokeWidth int `json:"strokeWidth"`

	// Points is the ordered gesture path; committed strokes have at least one point.
	Points []Point `json:"points"`

	// AuthorID, AuthorName and AuthorColor identify the connection that drew
	// the stroke, stamped by the server at commit time.
	AuthorID    string `json:"userId"`
	AuthorName  string `json:"userName"`
	AuthorColor string `json:"userColor"`

	// Timestamp is the commit time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// ResolveTool normalizes tool-dependent fields. Eraser strokes get the fixed
// background color and the widened stroke width; brush strokes are returned
// unchanged. Called by the transport layer before a stroke is committed.
func ResolveTool(s Stroke) Stroke {
	if s.Tool == ToolEraser {
		s.Color = EraserColor
		s.StrokeWidth = s.StrokeWidth * EraserWidthFactor
	}
	return s
}
