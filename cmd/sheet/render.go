package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/markusbuck/spreadsheet/packages/spreadsheet"
)

var (
	ColorAccent = lipgloss.Color("#20B9B4")
	ColorError  = lipgloss.Color("#E74C3C")
	ColorMuted  = lipgloss.Color("#2C4A54")
)

// Styles used for terminal output
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Error  lipgloss.Style
	Muted  lipgloss.Style
	Border lipgloss.Style
}

func newStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Error:  lipgloss.NewStyle().Foreground(ColorError).Padding(0, 1),
		Muted:  lipgloss.NewStyle().Foreground(ColorMuted),
		Border: lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// renderSheet draws every non-empty cell as a table of name, contents and
// value
func renderSheet(w io.Writer, s *spreadsheet.Spreadsheet, styles Styles) error {
	names := s.NonEmptyNames()
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, styles.Muted.Render("(empty sheet)"))
		return err
	}

	rows := make([][]string, 0, len(names))
	errorRows := make(map[int]bool)
	for i, name := range names {
		raw, err := s.RawContents(name)
		if err != nil {
			return err
		}
		value, err := s.GetValue(name)
		if err != nil {
			return err
		}
		if value.Type == spreadsheet.CellTypeError {
			errorRows[i] = true
		}
		rows = append(rows, []string{name, strings.TrimSpace(raw), value.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		Headers("CELL", "CONTENTS", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.Header
			case col == 2 && errorRows[row]:
				return styles.Error
			default:
				return styles.Cell
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
