package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	trainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	validStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	primeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ConsoleReporter prints loop output to w.
type ConsoleReporter struct {
	w io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) TrainLoss(iter int, loss float64) {
	fmt.Fprintln(r.w, trainStyle.Render(fmt.Sprintf("training loss: %v", loss)))
}

func (r *ConsoleReporter) ValidLoss(iter int, loss float64) {
	fmt.Fprintln(r.w, validStyle.Render(fmt.Sprintf("validation loss: %v", loss)))
}

func (r *ConsoleReporter) Generation(iter int, prime, output string) {
	fmt.Fprintf(r.w, "%s \n\n %s\n", primeStyle.Render(prime), sepStyle.Render(strings.Repeat("*", 100)))
	fmt.Fprintln(r.w, output)
	fmt.Fprintln(r.w)
}
