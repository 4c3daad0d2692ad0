// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"ledstrip/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var highlightStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#25A065")).
	Bold(true)

var (
	upKeys     = key.NewBinding(key.WithKeys("up", "k"))
	downKeys   = key.NewBinding(key.WithKeys("down", "j"))
	enterKeys  = key.NewBinding(key.WithKeys("enter"))
	backKeys   = key.NewBinding(key.WithKeys("esc"))
	pickerQuit = key.NewBinding(key.WithKeys("q", "ctrl+c"))
)

// commonSampleRates are offered besides the device default.
var commonSampleRates = []float64{44100, 48000, 88200, 96000}

// ScreenType defines which screen is currently active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the device and sample rate chosen in the picker.
type Selection struct {
	DeviceID   int
	Name       string
	SampleRate float64
}

// YAML renders the selection as the audio section of a config file.
func (s Selection) YAML() string {
	return fmt.Sprintf("audio:\n  input_device: %d # %s\n  sample_rate: %.0f\n", s.DeviceID, s.Name, s.SampleRate)
}

// DevicePickerModel lists input devices and lets the user pick one and a
// sample rate.
type DevicePickerModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	activeScreen  ScreenType

	sampleRates     []float64
	sampleRateIndex int

	chosen *Selection
}

// NewDevicePickerModel offers the devices that can record.
func NewDevicePickerModel(devices []audio.Device) DevicePickerModel {
	var inputs []audio.Device
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return DevicePickerModel{devices: inputs, activeScreen: ListScreen}
}

// Chosen returns the confirmed selection, if any.
func (m DevicePickerModel) Chosen() (Selection, bool) {
	if m.chosen == nil {
		return Selection{}, false
	}
	return *m.chosen, true
}

func (m DevicePickerModel) Init() tea.Cmd {
	return nil
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, pickerQuit) {
			return m, tea.Quit
		}
		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, upKeys):
				m.selectedIndex = max(m.selectedIndex-1, 0)
			case key.Matches(msg, downKeys):
				m.selectedIndex = min(m.selectedIndex+1, max(len(m.devices)-1, 0))
			case key.Matches(msg, enterKeys) && len(m.devices) > 0:
				m.activeScreen = ConfigScreen
				m.sampleRates, m.sampleRateIndex = sampleRatesFor(m.devices[m.selectedIndex])
			}
		case ConfigScreen:
			switch {
			case key.Matches(msg, backKeys):
				m.activeScreen = ListScreen
			case key.Matches(msg, upKeys):
				m.sampleRateIndex = max(m.sampleRateIndex-1, 0)
			case key.Matches(msg, downKeys):
				m.sampleRateIndex = min(m.sampleRateIndex+1, len(m.sampleRates)-1)
			case key.Matches(msg, enterKeys):
				d := m.devices[m.selectedIndex]
				m.chosen = &Selection{DeviceID: d.ID, Name: d.Name, SampleRate: m.sampleRates[m.sampleRateIndex]}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// sampleRatesFor lists the common rates plus the device default, selecting
// the default.
func sampleRatesFor(d audio.Device) ([]float64, int) {
	rates := append([]float64(nil), commonSampleRates...)
	for i, r := range rates {
		if r == d.DefaultSampleRate {
			return rates, i
		}
	}
	rates = append(rates, d.DefaultSampleRate)
	return rates, len(rates) - 1
}

func (m *DevicePickerModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

func (m DevicePickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Audio Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Use • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", d.ID, d.Name, d.Kind())
		info += fmt.Sprintf("    Input channels: %d\n", d.MaxInputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DevicePickerModel) renderDeviceConfig() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Configure Device: %s\n\n", m.devices[m.selectedIndex].Name)
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.sampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// PickDevice runs the picker on the alternate screen. The bool is false
// when the user quit without choosing.
func PickDevice(devices []audio.Device) (Selection, bool, error) {
	final, err := tea.NewProgram(NewDevicePickerModel(devices), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok := final.(DevicePickerModel).Chosen()
	return sel, ok, nil
}
