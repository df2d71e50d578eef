package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

const (
	halfPower = 50
	fullPower = drive.MaxPower
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	jointStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// driveKeys maps WSAD to two-sided power; capitals are full power.
var driveKeys = map[string]drive.Command{
	"w": {Left: halfPower, Right: halfPower},
	"s": {Left: -halfPower, Right: -halfPower},
	"a": {Left: -halfPower, Right: halfPower},
	"d": {Left: halfPower, Right: -halfPower},
	"W": {Left: fullPower, Right: fullPower},
	"S": {Left: -fullPower, Right: -fullPower},
	"A": {Left: -fullPower, Right: fullPower},
	"D": {Left: fullPower, Right: -fullPower},
	" ": {},
}

type roverClient interface {
	DriveCommand(ctx context.Context, cmd drive.Command) error
	MoveArmCommand(ctx context.Context, deltas []int) (arm.Position, error)
	ResetArmCommand(ctx context.Context) (arm.Position, error)
	ArmPositionQuery(ctx context.Context) (arm.Position, error)
}

type (
	tickMsg     struct{}
	driveResult struct{ err error }
	armResult   struct {
		joints arm.Position
		err    error
	}
	stopResult struct{ err error }
)

type model struct {
	ctx    context.Context
	client roverClient
	url    string
	repeat time.Duration
	step   int

	current  drive.Command
	joint    int
	joints   *arm.Position
	lastErr  error
	sent     int
	quitting bool
	stopErr  error
}

func newModel(ctx context.Context, c roverClient, url string, repeat time.Duration, step int) model {
	return model{
		ctx:    ctx,
		client: c,
		url:    url,
		repeat: repeat,
		step:   step,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.queryArm(), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// a held command has to be refreshed or the rover watchdog stops it
		if m.quitting {
			return m, nil
		}

		if m.current != (drive.Command{}) {
			return m, tea.Batch(m.sendDrive(m.current), m.tick())
		}

		return m, m.tick()

	case driveResult:
		m.lastErr = msg.err
		if msg.err == nil {
			m.sent++
		}

		return m, nil

	case armResult:
		m.lastErr = msg.err
		if msg.err == nil {
			joints := msg.joints
			m.joints = &joints
		}

		return m, nil

	case stopResult:
		m.stopErr = msg.err

		return m, tea.Quit
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	key := msg.String()

	if cmd, ok := driveKeys[key]; ok {
		m.current = cmd

		return m, m.sendDrive(cmd)
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.current = drive.Command{}

		return m, m.sendStop()
	case "1", "2", "3", "4", "5", "6":
		m.joint = int(key[0] - '1')
	case "up":
		return m, m.moveJoint(m.step)
	case "down":
		return m, m.moveJoint(-m.step)
	case "r":
		return m, m.resetArm()
	}

	return m, nil
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.repeat, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) sendDrive(cmd drive.Command) tea.Cmd {
	return func() tea.Msg {
		return driveResult{err: m.client.DriveCommand(m.ctx, cmd)}
	}
}

func (m model) sendStop() tea.Cmd {
	return func() tea.Msg {
		return stopResult{err: m.client.DriveCommand(m.ctx, drive.Command{})}
	}
}

func (m model) moveJoint(delta int) tea.Cmd {
	deltas := make([]int, arm.JointCount)
	deltas[m.joint] = delta

	return func() tea.Msg {
		joints, err := m.client.MoveArmCommand(m.ctx, deltas)

		return armResult{joints: joints, err: err}
	}
}

func (m model) resetArm() tea.Cmd {
	return func() tea.Msg {
		joints, err := m.client.ResetArmCommand(m.ctx)

		return armResult{joints: joints, err: err}
	}
}

func (m model) queryArm() tea.Cmd {
	return func() tea.Msg {
		joints, err := m.client.ArmPositionQuery(m.ctx)

		return armResult{joints: joints, err: err}
	}
}

func (m model) View() string {
	if m.quitting {
		return "Stopping rover.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Rover keys"))
	sb.WriteString(helpStyle.Render("  " + m.url))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "drive  left %4d  right %4d  sent %d\n", m.current.Left, m.current.Right, m.sent)

	sb.WriteString("arm   ")

	for i := range arm.JointCount {
		value := "  ?"
		if m.joints != nil {
			value = fmt.Sprintf("%d", m.joints[i])
		}

		cell := fmt.Sprintf(" %d:%s", i+1, value)
		if i == m.joint {
			sb.WriteString(selectedStyle.Render(cell))
		} else {
			sb.WriteString(jointStyle.Render(cell))
		}
	}

	sb.WriteString("\n\n")

	if m.lastErr != nil {
		sb.WriteString(errorStyle.Render(m.lastErr.Error()))
		sb.WriteString("\n\n")
	}

	sb.WriteString(helpStyle.Render("wsad drive  WSAD full power  space stop  1-6 joint  up/down nudge  r reset  q quit"))
	sb.WriteString("\n")

	return sb.String()
}
