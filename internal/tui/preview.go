// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ledstrip/internal/pixel"
	"ledstrip/internal/sink"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	quitKeys = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))
)

// previewFPS caps how often the terminal is redrawn.
const previewFPS = 30

// StatusFunc describes the renderer state shown under the strip.
type StatusFunc func() string

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/previewFPS, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// previewModel draws the latest frame as a row of colored blocks.
type previewModel struct {
	frame  *atomic.Pointer[[][3]uint8]
	quit   *atomic.Bool
	status StatusFunc
	width  int
	pixels [][3]uint8
}

func (m previewModel) Init() tea.Cmd {
	return tick()
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if f := m.frame.Load(); f != nil {
			m.pixels = *f
		}
		return m, tick()
	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			m.quit.Store(true)
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("LED Strip Preview"))
	sb.WriteString("\n\n")
	sb.WriteString(renderStrip(m.pixels, m.width))
	sb.WriteString("\n\n")
	if m.status != nil {
		sb.WriteString(infoStyle.Render(m.status()))
		sb.WriteString("\n")
	}
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}

// renderStrip draws one block per pixel, wrapping at width columns.
func renderStrip(pixels [][3]uint8, width int) string {
	if len(pixels) == 0 {
		return "Waiting for frames..."
	}
	if width <= 0 {
		width = 80
	}
	var sb strings.Builder
	for i, px := range pixels {
		if i > 0 && i%width == 0 {
			sb.WriteString("\n")
		}
		color := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", px[0], px[1], px[2]))
		sb.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
	}
	return sb.String()
}

// Preview is a sink that shows the strip in the terminal. Quitting the
// preview makes Update return sink.ErrStop so the renderer shuts down.
type Preview struct {
	program *tea.Program
	frame   atomic.Pointer[[][3]uint8]
	quit    atomic.Bool
	done    chan struct{}
	err     error
	once    sync.Once
}

// NewPreview starts the terminal UI on the alternate screen.
func NewPreview(status StatusFunc) *Preview {
	p := &Preview{done: make(chan struct{})}
	p.program = tea.NewProgram(
		previewModel{frame: &p.frame, quit: &p.quit, status: status},
		tea.WithAltScreen(),
	)
	go func() {
		defer close(p.done)
		if _, err := p.program.Run(); err != nil {
			p.err = err
		}
		p.quit.Store(true)
	}()
	return p
}

func (*Preview) Name() string { return "terminal preview" }

// Update publishes the frame for the next redraw.
func (p *Preview) Update(b pixel.Buffer) error {
	if p.quit.Load() {
		return sink.ErrStop
	}
	rgb := b.RGB()
	p.frame.Store(&rgb)
	return nil
}

// Close stops the UI and restores the terminal.
func (p *Preview) Close() error {
	p.once.Do(func() {
		p.program.Quit()
		<-p.done
	})
	return p.err
}

var _ sink.Sink = (*Preview)(nil)
