// Package tui provides Bubble Tea models for the interactive board.
package tui

import (
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
)

// CellSelectedMsg is emitted when the user picks a target cell in the picker.
type CellSelectedMsg struct {
	Cell domain.CellKey
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// Internal messages shared by the app and board models.
type (
	boardLoadedMsg struct {
		board domain.Board
		err   error
	}
	boardChangedMsg struct{}
	boardSavedMsg   struct{ err error }
	verdictMsg      struct{ verdict dnd.Verdict }

	openDetailMsg     struct{ item domain.Item }
	closeDetailMsg    struct{}
	openCellPickerMsg struct {
		cells  []cellOption
		source domain.CellKey
	}
	cellPickerClosedMsg struct{}
)
