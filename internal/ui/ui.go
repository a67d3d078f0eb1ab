package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/models"
)

// Terminal implements the import operator with one bubbletea program per prompt.
//
// Prompts run strictly one at a time. A prompt that fails to run counts as declined.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	logger *log.Logger

	interrupt func()
}

// NewTerminal creates a [Terminal] reading from in and drawing to out. Nil streams default to stdin and stdout.
func NewTerminal(in io.Reader, out io.Writer, logger *log.Logger) *Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Terminal{in: in, out: out, logger: logger}
}

// OnInterrupt registers fn to be called when the operator presses ctrl+c in any prompt.
func (t *Terminal) OnInterrupt(fn func()) {
	t.interrupt = fn
}

// interruptible is implemented by every prompt model.
type interruptible interface {
	tea.Model
	wasInterrupted() bool
}

func (m *pickerModel) wasInterrupted() bool  { return m.interrupted }
func (m *confirmModel) wasInterrupted() bool { return m.interrupted }
func (m *editModel) wasInterrupted() bool    { return m.interrupted }

// run blocks until model quits. It reports false when the program could not run to completion.
func (t *Terminal) run(ctx context.Context, model interruptible) bool {
	p := tea.NewProgram(model, tea.WithInput(t.in), tea.WithOutput(t.out), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		t.logger.Debug("prompt ended without an answer", "error", err)
		return false
	}
	if model.wasInterrupted() && t.interrupt != nil {
		t.interrupt()
	}
	return true
}

// ShowCandidates lists the candidates for req in provider order.
func (t *Terminal) ShowCandidates(ctx context.Context, req models.TrackRequest, query string, candidates []models.Candidate) (int, bool) {
	header := fmt.Sprintf("Row %d · searched for %q", req.Row, query)
	m := newPickerModel(req.String(), header, candidateItems(candidates), true)
	if !t.run(ctx, m) || !m.chosen {
		return 0, false
	}
	return m.choice, true
}

// Choose lists plain options under title.
func (t *Terminal) Choose(ctx context.Context, title string, options []string) (int, bool) {
	m := newPickerModel(title, "", optionItems(options), false)
	if !t.run(ctx, m) || !m.chosen {
		return 0, false
	}
	return m.choice, true
}

// Confirm asks a yes/no question. Anything but an explicit yes is a no.
func (t *Terminal) Confirm(ctx context.Context, question string) bool {
	m := newConfirmModel(question)
	return t.run(ctx, m) && m.answer
}

// EditText prompts for a line of text starting from initial.
func (t *Terminal) EditText(ctx context.Context, label, initial string) (string, bool) {
	m := newEditModel(label, initial)
	if !t.run(ctx, m) || !m.confirmed {
		return "", false
	}
	return m.Value(), true
}

func (t *Terminal) Notify(ctx context.Context, message string) {
	fmt.Fprintln(t.out, styles.ok.Render(message))
}

func (t *Terminal) Error(ctx context.Context, message string) {
	fmt.Fprintln(t.out, styles.err.Render("Error: ")+message)
}

// Status prints a dimmed progress line.
func (t *Terminal) Status(message string) {
	fmt.Fprintln(t.out, styles.help.Render(message))
}
