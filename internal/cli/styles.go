// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#D7263D")
	accentColor  = lipgloss.Color("#F49D37")
	successColor = lipgloss.Color("#1B998B")
	mutedColor   = lipgloss.Color("#888888")
	lockedColor  = lipgloss.Color("#3F88C5")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	LockedStyle = lipgloss.NewStyle().
			Foreground(lockedColor)
)

// Printer writes styled output.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

func (p Printer) Title(s string) {
	fmt.Fprintln(p.Out, TitleStyle.Render(s))
}

func (p Printer) Section(s string) {
	fmt.Fprintln(p.Out, HeaderStyle.Render(s))
}

func (p Printer) Info(key, value string) {
	fmt.Fprintf(p.Out, "%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

func (p Printer) Success(msg string) {
	fmt.Fprintf(p.Out, "%s %s\n", SuccessStyle.Render("✓"), msg)
}

func (p Printer) Warning(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", WarningStyle.Render("Warning:"), msg)
}

func (p Printer) Error(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", ErrorStyle.Render("Error:"), msg)
}

// Markers prints positions in seconds, highlighting the locked ones.
func (p Printer) Markers(splice, locked []float64) {
	if len(splice) == 0 {
		p.Info("Markers", "none")
		return
	}

	isLocked := make(map[float64]bool, len(locked))
	for _, v := range locked {
		isLocked[v] = true
	}

	parts := make([]string, 0, len(splice))
	for _, v := range splice {
		s := FormatSeconds(v)
		if isLocked[v] {
			s = LockedStyle.Render(s + "*")
		}
		parts = append(parts, s)
	}
	fmt.Fprintf(p.Out, "%s %s\n", KeyStyle.Render("Markers:"), strings.Join(parts, " "))
}

// FormatSeconds formats a position with millisecond precision.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "s"
}
