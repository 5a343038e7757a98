package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/mock"

	"github.com/jask/jaskprofile/internal/account"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CurrentSession(ctx context.Context) (*account.Session, error) {
	args := m.Called(ctx)
	sess, _ := args.Get(0).(*account.Session)
	return sess, args.Error(1)
}

func (m *mockBackend) Profile(ctx context.Context, userID string) (account.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(account.Profile)
	return p, args.Error(1)
}

func (m *mockBackend) UpdateProfile(ctx context.Context, userID string, upd account.ProfileUpdate) error {
	return m.Called(ctx, userID, upd).Error(0)
}

func (m *mockBackend) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	args := m.Called(ctx, email, password)
	sess, _ := args.Get(0).(*account.Session)
	return sess, args.Error(1)
}

func (m *mockBackend) SignUp(ctx context.Context, email, password, displayName string) (*account.Session, error) {
	args := m.Called(ctx, email, password, displayName)
	sess, _ := args.Get(0).(*account.Session)
	return sess, args.Error(1)
}

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) GoTo(route Route) tea.Cmd {
	args := m.Called(route)
	cmd, _ := args.Get(0).(tea.Cmd)
	return cmd
}

// navCmd is what mockNavigator hands back so tests can see it was returned.
func navCmd(route Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: route} }
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
	keyCtrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
)

var aliceSession = &account.Session{UserID: "u1", Email: "alice@example.com", AccessToken: "tok"}
