package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

type fakeClient struct {
	mu     sync.Mutex
	drives []drive.Command
	moves  [][]int
	resets int
	err    error
}

func (f *fakeClient) DriveCommand(_ context.Context, cmd drive.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.drives = append(f.drives, cmd)

	return f.err
}

func (f *fakeClient) MoveArmCommand(_ context.Context, deltas []int) (arm.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.moves = append(f.moves, deltas)

	return arm.BasePose(), f.err
}

func (f *fakeClient) ResetArmCommand(context.Context) (arm.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets++

	return arm.BasePose(), f.err
}

func (f *fakeClient) ArmPositionQuery(context.Context) (arm.Position, error) {
	return arm.BasePose(), f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds a key and runs the resulting command back into the model.
func press(t *testing.T, m model, key tea.KeyMsg) (model, tea.Msg) {
	t.Helper()

	next, cmd := m.Update(key)
	m = next.(model)

	if cmd == nil {
		return m, nil
	}

	msg := cmd()
	next, _ = m.Update(msg)

	return next.(model), msg
}

func TestModel_DriveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give tea.KeyMsg
		want drive.Command
	}{
		{give: runes("w"), want: drive.Command{Left: 50, Right: 50}},
		{give: runes("a"), want: drive.Command{Left: -50, Right: 50}},
		{give: runes("s"), want: drive.Command{Left: -50, Right: -50}},
		{give: runes("d"), want: drive.Command{Left: 50, Right: -50}},
		{give: runes("W"), want: drive.Command{Left: 100, Right: 100}},
		{give: runes("A"), want: drive.Command{Left: -100, Right: 100}},
		{give: runes("S"), want: drive.Command{Left: -100, Right: -100}},
		{give: runes("D"), want: drive.Command{Left: 100, Right: -100}},
		{give: tea.KeyMsg{Type: tea.KeySpace}, want: drive.Command{}},
	}

	for _, tt := range tests {
		t.Run(tt.give.String(), func(t *testing.T) {
			t.Parallel()

			c := &fakeClient{}
			m := newModel(t.Context(), c, "http://rover", time.Second, 100)

			m, msg := press(t, m, tt.give)
			require.IsType(t, driveResult{}, msg)
			require.Equal(t, tt.want, m.current)
			require.Equal(t, []drive.Command{tt.want}, c.drives)
			require.Equal(t, 1, m.sent)
		})
	}
}

func TestModel_TickResendsOnlyNonZero(t *testing.T) {
	t.Parallel()

	c := &fakeClient{}
	m := newModel(t.Context(), c, "http://rover", time.Second, 100)

	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd, "idle tick reschedules")
	require.Empty(t, c.drives)

	m, _ = press(t, m, runes("w"))

	next, cmd := m.Update(tickMsg{})
	m = next.(model)
	require.NotNil(t, cmd)

	// the batch holds the resend and the next tick; run the resend only
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)

	_, isDrive := batch[0]().(driveResult)
	require.True(t, isDrive)
	require.Equal(t, []drive.Command{{Left: 50, Right: 50}, {Left: 50, Right: 50}}, c.drives)
	require.Equal(t, drive.Command{Left: 50, Right: 50}, m.current)
}

func TestModel_Arm(t *testing.T) {
	t.Parallel()

	c := &fakeClient{}
	m := newModel(t.Context(), c, "http://rover", time.Second, 25)

	m, msg := press(t, m, runes("3"))
	require.Nil(t, msg)
	require.Equal(t, 2, m.joint)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, [][]int{{0, 0, 25, 0, 0, 0}, {0, 0, -25, 0, 0, 0}}, c.moves)
	require.NotNil(t, m.joints)

	m, _ = press(t, m, runes("r"))
	require.Equal(t, 1, c.resets)
	require.Equal(t, arm.BasePose(), *m.joints)

	// out-of-range selection keys are ignored
	m, _ = press(t, m, runes("7"))
	require.Equal(t, 2, m.joint)
}

func TestModel_QuitSendsStop(t *testing.T) {
	t.Parallel()

	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		c := &fakeClient{}
		m := newModel(t.Context(), c, "http://rover", time.Second, 100)

		m, _ = press(t, m, runes("W"))

		next, cmd := m.Update(key)
		m = next.(model)
		require.True(t, m.quitting)

		msg := cmd()
		require.IsType(t, stopResult{}, msg)

		next, cmd = m.Update(msg)
		m = next.(model)
		require.NoError(t, m.stopErr)
		require.IsType(t, tea.QuitMsg{}, cmd())
		require.Equal(t, drive.Command{}, c.drives[len(c.drives)-1])

		// nothing is resent while quitting
		_, cmd = m.Update(tickMsg{})
		require.Nil(t, cmd)
	}
}

func TestModel_ErrorsAreShown(t *testing.T) {
	t.Parallel()

	c := &fakeClient{err: errors.New("rover returned 400: invalid drive range")}
	m := newModel(t.Context(), c, "http://rover", time.Second, 100)

	m, _ = press(t, m, runes("w"))
	require.Error(t, m.lastErr)
	require.Zero(t, m.sent)
	require.Contains(t, m.View(), "invalid drive range")
}
