// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live packet monitor with traffic statistics",
	Long: `Full-screen live view of decoded protocol traffic.

The top pane scrolls decoded packets as they arrive; the status bar tracks
packet counts, checksum failures, and bytes skipped during resynchronization.

Keys: up/down or PgUp/PgDn scroll, q quits.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// Styles
var (
	monitorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	monitorStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	monitorErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	monitorResponseStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))
)

// Messages
type monitorPacketMsg struct {
	packet  *protocol.Packet
	skipped uint64 // decoder noise-byte count at decode time
}
type monitorDecodeErrMsg struct {
	err error
}
type monitorReadErrMsg struct {
	err error
}
type monitorTickMsg time.Time

type monitorModel struct {
	connInfo string
	viewport viewport.Model
	lines    []string
	maxLines int

	packets   uint64
	responses uint64
	crcErrors uint64
	skipped   uint64
	readErr   error

	ready    bool
	quitting bool
}

func newMonitorModel(connInfo string) monitorModel {
	return monitorModel{
		connInfo: connInfo,
		maxLines: 500,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))

	case monitorTickMsg:
		return m, monitorTickCmd()

	case monitorPacketMsg:
		m.packets++
		m.skipped = msg.skipped
		text := strings.TrimRight(protocol.FormatPacket(msg.packet), "\n")
		if msg.packet.IsResponse() {
			m.responses++
			text = monitorResponseStyle.Render(text)
		}
		m.appendLines(text)

	case monitorDecodeErrMsg:
		m.crcErrors++
		m.appendLines(monitorErrorStyle.Render(fmt.Sprintf("[ERROR] %v", msg.err)))

	case monitorReadErrMsg:
		m.readErr = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *monitorModel) appendLines(text string) {
	atBottom := m.viewport.AtBottom()
	m.lines = append(m.lines, strings.Split(text, "\n")...)
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[len(m.lines)-m.maxLines:]
	}
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "initializing..."
	}

	title := monitorTitleStyle.Render("Eilikemu Monitor")
	header := fmt.Sprintf("%s  %s\n", title, monitorStatusStyle.Render(m.connInfo))

	status := fmt.Sprintf("packets: %d  responses: %d  crc errors: %d  skipped bytes: %d",
		m.packets, m.responses, m.crcErrors, m.skipped)
	footer := "\n" + monitorStatusStyle.Render(status+"  |  q: quit")

	return header + m.viewport.View() + footer
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	program := tea.NewProgram(newMonitorModel(connInfo))

	// Reader goroutine feeds decoded packets into the UI
	go func() {
		decoder := protocol.NewDecoder()
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				program.Send(monitorReadErrMsg{err: err})
				return
			}
			for i := 0; i < n; i++ {
				packet, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					program.Send(monitorDecodeErrMsg{err: decodeErr})
					continue
				}
				if packet != nil {
					program.Send(monitorPacketMsg{packet: packet, skipped: decoder.SkippedBytes()})
				}
			}
		}
	}()

	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(monitorModel); ok && m.readErr != nil && m.readErr != ErrConnectionClosed {
		return fmt.Errorf("connection lost: %v", m.readErr)
	}
	return nil
}
