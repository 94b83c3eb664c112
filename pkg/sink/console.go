// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	roleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(0, 1)
)

// Console renders records for a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Enqueue(env Envelope) error {
	msg := env.Data.TaskMessage
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", timeStyle.Render(msg.Timestamp), roleStyle.Render(msg.Role))
	b.WriteString(strings.TrimSpace(msg.Content))
	b.WriteByte('\n')
	if msg.File != nil {
		b.WriteString(fileStyle.Render(msg.File.FileType + "\n" + strings.TrimSpace(msg.File.FileData)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}
