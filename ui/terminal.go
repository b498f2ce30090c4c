// Package ui renders the chat transcript and the user list on a terminal.
// It is a passive sink: the protocol layer writes, nothing reads back.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-relay/contract"
)

// Terminal implements contract.DisplaySink over any writer.
// Safe for concurrent use: lines arrive from listener goroutines while
// the prompt loop runs on the main one.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	colors bool
	users  []string
}

func NewTerminal(out io.Writer, colors bool) *Terminal {
	return &Terminal{out: out, colors: colors}
}

func (t *Terminal) AppendLine(text string, style contract.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.render(text, style))
}

func (t *Terminal) render(text string, style contract.Style) string {
	if !t.colors {
		return text
	}
	switch style {
	case contract.StyleBold:
		return color.New(color.OpBold).Render(text)
	case contract.StyleServer:
		return color.New(color.FgGreen).Render(text)
	case contract.StyleError:
		return color.New(color.FgRed, color.OpBold).Render(text)
	}
	return text
}

func (t *Terminal) AddUser(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.users {
		if existing == name {
			return
		}
	}
	t.users = append(t.users, name)
}

func (t *Terminal) RemoveUser(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.users {
		if existing == name {
			t.users = append(t.users[:i], t.users[i+1:]...)
			return
		}
	}
}

func (t *Terminal) ClearUsers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users = nil
}

// Users returns the current list in arrival order.
func (t *Terminal) Users() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.users...)
}

// RenderUsers prints the user list as a table, for the /users command.
func (t *Terminal) RenderUsers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Connected users"})
	for _, name := range t.users {
		table.Append([]string{name})
	}
	table.Render()
}
