package ui

import (
	"strings"

	"github.com/Dicklesworthstone/vselect/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// WaitForReload delivers the next watcher reload as an OptionsMsg
func WaitForReload(reloads <-chan watcher.Reload) tea.Cmd {
	if reloads == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-reloads
		if !ok {
			return nil
		}
		return OptionsMsg{Options: r.Options, Err: r.Err}
	}
}

// SelectProgram wraps SelectModel to implement tea.Model for standalone use
type SelectProgram struct {
	sel     *SelectModel
	reloads <-chan watcher.Reload

	onChange func(ChangeMsg)

	submitted bool
	cancelled bool
}

// NewSelectProgram creates a program around sel. reloads may be nil.
func NewSelectProgram(sel *SelectModel, reloads <-chan watcher.Reload) *SelectProgram {
	return &SelectProgram{sel: sel, reloads: reloads}
}

// OnChange registers a hook run for every selection change
func (p *SelectProgram) OnChange(fn func(ChangeMsg)) {
	p.onChange = fn
}

// Init implements tea.Model
func (p *SelectProgram) Init() tea.Cmd {
	return tea.Batch(p.sel.Init(), p.sel.Focus(), WaitForReload(p.reloads))
}

// Update implements tea.Model
func (p *SelectProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.sel.SetSize(msg.Width, msg.Height)
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			p.cancelled = true
			return p, tea.Quit
		case "ctrl+s":
			p.submitted = true
			return p, tea.Quit
		case "esc":
			if p.sel.State() == StateClosed {
				p.cancelled = true
				return p, tea.Quit
			}
		}

	case ChangeMsg:
		if p.onChange != nil {
			p.onChange(msg)
		}
		// a single pick is the answer
		if !p.sel.Multiple() && msg.Value != nil {
			p.submitted = true
			return p, tea.Quit
		}
		return p, nil

	case OptionsMsg:
		var cmd tea.Cmd
		p.sel, cmd = p.sel.Update(msg)
		return p, tea.Batch(cmd, WaitForReload(p.reloads))
	}

	var cmd tea.Cmd
	p.sel, cmd = p.sel.Update(msg)
	return p, cmd
}

// View implements tea.Model
func (p *SelectProgram) View() string {
	if p.submitted || p.cancelled {
		return ""
	}
	help := "enter: select • esc: close • ctrl+y: copy • ctrl+c: quit"
	if p.sel.Multiple() {
		help = "enter: toggle • ctrl+s: done • esc: close • ctrl+y: copy • ctrl+c: quit"
	}
	var b strings.Builder
	b.WriteString(p.sel.View())
	b.WriteString("\n")
	b.WriteString(p.sel.theme.RenderDivider(p.sel.Width()))
	b.WriteString("\n")
	b.WriteString(p.sel.theme.muted().Render(help))
	return b.String()
}

// Result returns the chosen values and whether the user submitted them
func (p *SelectProgram) Result() ([]string, bool) {
	return p.sel.Values(), p.submitted && !p.cancelled
}

// Select exposes the wrapped component
func (p *SelectProgram) Select() *SelectModel {
	return p.sel
}
