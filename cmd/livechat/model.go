package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	session "github.com/halcyonlabs/live-core/core"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	frameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// sessionEvent is one orchestrator event relayed into the bubbletea loop.
type sessionEvent struct {
	kind string
	text string
}

type sessionEventMsg sessionEvent

type connectedMsg struct{ err error }

type model struct {
	orchestrator *session.Orchestrator
	events       chan sessionEvent

	viewport   viewport.Model
	input      textinput.Model
	transcript []string

	// streaming is the assistant line currently being received.
	streaming string

	recording bool
	suspended bool
	cameraOn  bool
	screenOn  bool
	state     string
	width     int
	height    int
	quitting  bool
}

func newModel(orchestrator *session.Orchestrator, events chan sessionEvent) model {
	input := textinput.New()
	input.Placeholder = "Type a message and press enter"
	input.Focus()

	return model{
		orchestrator: orchestrator,
		events:       events,
		input:        input,
		viewport:     viewport.New(80, 20),
		state:        "connecting",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.connectSession(),
		m.waitForEvent(),
		textinput.Blink,
	)
}

func (m model) connectSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.orchestrator.Connect(ctx); err != nil {
			return connectedMsg{err: err}
		}
		return connectedMsg{err: m.orchestrator.Initialize(ctx)}
	}
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return nil
		}
		return sessionEventMsg(event)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.orchestrator.Disconnect(ctx)
			return m, tea.Quit
		case tea.KeyCtrlT:
			if err := m.orchestrator.ToggleMic(context.Background()); err != nil {
				m = m.appendLine(errorStyle.Render(fmt.Sprintf("mic: %v", err)))
			}
			return m, nil
		case tea.KeyCtrlV:
			m = m.toggleCamera()
			return m, nil
		case tea.KeyCtrlS:
			m = m.toggleScreen()
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			if err := m.orchestrator.SendText(context.Background(), text); err != nil {
				m = m.appendLine(errorStyle.Render(fmt.Sprintf("send: %v", err)))
				return m, nil
			}
			m = m.appendLine(userStyle.Render("you: ") + text)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		m.input.Width = msg.Width - 8
		m = m.refreshViewport()

	case connectedMsg:
		if msg.err != nil {
			m.state = "failed"
			m = m.appendLine(errorStyle.Render(fmt.Sprintf("session: %v", msg.err)))
		} else {
			m.state = "ready"
			m = m.appendLine(systemStyle.Render("session ready"))
		}
		return m, nil

	case sessionEventMsg:
		m = m.handleSessionEvent(sessionEvent(msg))
		cmds = append(cmds, m.waitForEvent())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) handleSessionEvent(event sessionEvent) model {
	switch event.kind {
	case "segment":
		m.streaming += event.text
		return m.refreshViewport()
	case "turn_complete":
		m.streaming = ""
		if event.text != "" {
			return m.appendLine(assistantStyle.Render("assistant: ") + event.text)
		}
		return m.refreshViewport()
	case "interrupted":
		m.streaming = ""
		if event.text != "" {
			return m.appendLine(assistantStyle.Render("assistant: ") + event.text +
				systemStyle.Render(" [interrupted]"))
		}
		return m.refreshViewport()
	case "user_transcription":
		return m.appendLine(userStyle.Render("you (voice): ") + event.text)
	case "transcription":
		return m.appendLine(assistantStyle.Render("assistant (voice): ") + event.text)
	case "recording":
		m.recording = event.text == "true"
		m.suspended = false
		return m.refreshViewport()
	case "mic_suspended":
		m.suspended = event.text == "true"
		return m.refreshViewport()
	case "camera":
		m.cameraOn = event.text == "true"
		return m.refreshViewport()
	case "screen":
		m.screenOn = event.text == "true"
		return m.refreshViewport()
	case "disconnected":
		m.state = "disconnected"
		return m.appendLine(errorStyle.Render("disconnected: " + event.text))
	case "error":
		return m.appendLine(errorStyle.Render(event.text))
	}
	return m
}

func (m model) toggleCamera() model {
	if m.cameraOn {
		m.orchestrator.StopCameraCapture()
		return m
	}
	if err := m.orchestrator.StartCameraCapture(context.Background()); err != nil {
		return m.appendLine(errorStyle.Render(fmt.Sprintf("camera: %v", err)))
	}
	return m
}

func (m model) toggleScreen() model {
	if m.screenOn {
		m.orchestrator.StopScreenShare()
		return m
	}
	if err := m.orchestrator.StartScreenShare(context.Background()); err != nil {
		return m.appendLine(errorStyle.Render(fmt.Sprintf("screen: %v", err)))
	}
	return m
}

func (m model) appendLine(line string) model {
	m.transcript = append(m.transcript, line)
	return m.refreshViewport()
}

func (m model) refreshViewport() model {
	width := m.viewport.Width
	if width <= 0 {
		width = 76
	}

	lines := make([]string, 0, len(m.transcript)+1)
	lines = append(lines, m.transcript...)
	if m.streaming != "" {
		lines = append(lines, assistantStyle.Render("assistant: ")+m.streaming)
	}

	m.viewport.SetContent(wordwrap.String(strings.Join(lines, "\n"), width))
	m.viewport.GotoBottom()
	return m
}

func (m model) statusLine() string {
	mic := "off"
	if m.recording {
		mic = "on"
		if m.suspended {
			mic = "muted"
		}
	}

	parts := []string{
		"state: " + m.state,
		"mic: " + mic,
	}
	if m.cameraOn {
		parts = append(parts, "camera: on")
	}
	if m.screenOn {
		parts = append(parts, "screen: on")
	}
	parts = append(parts, "ctrl+t mic · ctrl+v camera · ctrl+s screen · esc quit")

	return statusStyle.Render(strings.Join(parts, "  |  "))
}

func (m model) View() string {
	if m.quitting {
		return "bye\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		frameStyle.Render(m.viewport.View()),
		m.input.View(),
		m.statusLine(),
	)
}
