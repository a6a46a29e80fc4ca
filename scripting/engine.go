// Package scripting embeds a JavaScript engine for batch automation of the
// editor. Scripts see a small, controlled API surface; they never touch
// document bytes directly.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script and returns its final value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterEditor exposes the editor API to scripts.
	RegisterEditor(api EditorAPI) error
}

// EditorAPI is the surface scripts may drive. Page numbers are 1-based, as in
// the rest of the editor; a nil page selection means the current page. All
// methods operate on the active document unless noted.
type EditorAPI interface {
	// ActiveName returns the display name of the active document, "" when no
	// document is open.
	ActiveName() string

	// PageCount returns the active document's page count, 0 when none.
	PageCount() int

	// Open makes the named open document active.
	Open(name string) error

	// Rotate rotates the selected pages by delta degrees (multiples of 90).
	Rotate(pageNumbers []int, delta int) error

	// Watermark draws text diagonally across every page.
	Watermark(text string) error

	// DeletePages removes the selected pages.
	DeletePages(pageNumbers []int) error

	// Merge appends the pages of the named open document to the active one.
	Merge(name string) error

	// Undo and Redo step the active document's history. They report whether a
	// step was taken.
	Undo() (bool, error)
	Redo() (bool, error)
}
