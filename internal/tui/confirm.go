package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmDialog is a blocking yes/no question. While it is open every key
// goes to it.
type confirmDialog struct {
	prompt   string
	selected int // 0 = Yes, 1 = No
}

var confirmOptions = [...]string{"Yes", "No"}

func newConfirmDialog(prompt string) *confirmDialog {
	// Default to No so a stray enter never deletes.
	return &confirmDialog{prompt: prompt, selected: 1}
}

// update returns done=true once the user answered.
func (d *confirmDialog) update(msg tea.KeyMsg) (yes, done bool) {
	switch msg.String() {
	case "left", "right", "h", "l":
		d.selected = 1 - d.selected
	case "y", "Y":
		return true, true
	case "n", "N", "esc":
		return false, true
	case "enter":
		return d.selected == 0, true
	}
	return false, false
}

func (d *confirmDialog) view(width, height int) string {
	var opts string
	for i, label := range confirmOptions {
		style := optionStyle
		if i == d.selected {
			style = chosenOption
		}
		opts += style.Render(label)
	}
	box := modalStyle.Render(lipgloss.NewStyle().Bold(true).Render(d.prompt) + "\n\n" + opts)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
