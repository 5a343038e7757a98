package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskprofile/internal/account"
)

type dashboardSessionMsg struct {
	owner *DashboardScreen
	sess  *account.Session
	err   error
}

// DashboardScreen is the landing page after sign-in.
type DashboardScreen struct {
	svc  account.Service
	nav  Navigator
	keys *KeyRegistry

	ctx       context.Context
	cancel    context.CancelFunc
	unmounted bool

	email string
	err   error
}

func NewDashboardScreen(ctx context.Context, svc account.Service, nav Navigator, keys *KeyRegistry) *DashboardScreen {
	ctx, cancel := context.WithCancel(ctx)
	return &DashboardScreen{svc: svc, nav: nav, keys: keys, ctx: ctx, cancel: cancel}
}

func (s *DashboardScreen) Title() string { return "Dashboard" }
func (s *DashboardScreen) Scope() string { return scopeDashboard }

func (s *DashboardScreen) Unmount() {
	s.unmounted = true
	s.cancel()
}

func (s *DashboardScreen) Init() tea.Cmd {
	ctx := s.ctx
	return func() tea.Msg {
		sess, err := s.svc.CurrentSession(ctx)
		return dashboardSessionMsg{owner: s, sess: sess, err: err}
	}
}

func (s *DashboardScreen) Update(msg tea.Msg) tea.Cmd {
	if s.unmounted {
		return nil
	}
	switch msg := msg.(type) {
	case dashboardSessionMsg:
		if msg.owner != s {
			return nil
		}
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		if msg.sess == nil {
			return s.nav.GoTo(RouteEntry)
		}
		s.email = msg.sess.Email
	case tea.KeyMsg:
		switch s.keys.ActionFor(msg.String(), scopeDashboard) {
		case actionProfile:
			return s.nav.GoTo(RouteProfile)
		case actionQuit:
			return tea.Quit
		}
	}
	return nil
}

func (s *DashboardScreen) View(width, height int) string {
	body := titleStyle.Render("Welcome") + "\n\n"
	switch {
	case s.err != nil:
		body += errorStyle.Render("Could not read session: " + s.err.Error())
	case s.email != "":
		body += labelStyle.Render("Signed in as ") + valueStyle.Render(s.email)
	default:
		body += mutedStyle.Render("Checking session...")
	}
	return cardStyle.Render(body)
}
