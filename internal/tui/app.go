// Package tui is the Bubble Tea front end: a small router hosting the entry,
// dashboard and profile screens.
package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/jaskprofile/internal/account"
)

type Route string

const (
	RouteEntry     Route = "/"
	RouteDashboard Route = "/dashboard"
	RouteProfile   Route = "/profile"
)

// Navigator switches the mounted screen.
type Navigator interface {
	GoTo(route Route) tea.Cmd
}

// Screen is one mounted page. Unmount cancels the screen's context; results
// that arrive afterwards are dropped.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	Title() string
	Scope() string
	Unmount()
}

type navigateMsg struct {
	route Route
}

// App is the root model. It owns the current screen and implements Navigator.
type App struct {
	ctx     context.Context
	backend account.Backend
	keys    *KeyRegistry
	help    help.Model
	start   Route
	route   Route
	current Screen
	width   int
	height  int
}

var _ Navigator = (*App)(nil)

func New(ctx context.Context, backend account.Backend, start Route) *App {
	if start == "" {
		start = RouteEntry
	}
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorSubtext0)
	return &App{
		ctx:     ctx,
		backend: backend,
		keys:    NewKeyRegistry(),
		help:    h,
		start:   start,
	}
}

func (a *App) GoTo(route Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: route} }
}

// Route reports the mounted route.
func (a *App) Route() Route { return a.route }

func (a *App) Init() tea.Cmd {
	return a.mount(a.start)
}

func (a *App) mount(route Route) tea.Cmd {
	if a.current != nil {
		a.current.Unmount()
	}
	var next Screen
	switch route {
	case RouteDashboard:
		next = NewDashboardScreen(a.ctx, a.backend, a, a.keys)
	case RouteProfile:
		next = NewProfileScreen(a.ctx, a.backend, a, a.keys)
	default:
		route = RouteEntry
		next = NewEntryScreen(a.ctx, a.backend, a, a.keys)
	}
	slog.Debug("navigate", "route", string(route))
	a.route = route
	a.current = next
	return next.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
	case tea.KeyMsg:
		if a.keys.Lookup(msg.String(), scopeGlobal) != nil {
			a.current.Unmount()
			return a, tea.Quit
		}
	case navigateMsg:
		return a, a.mount(msg.route)
	}
	if a.current == nil {
		return a, nil
	}
	return a, a.current.Update(msg)
}

func (a *App) View() string {
	if a.current == nil {
		return ""
	}
	header := headerStyle.Render("jaskprofile · " + a.current.Title())
	footer := footerStyle.Render(a.help.ShortHelpView(a.keys.HelpBindings(a.current.Scope())))
	bodyHeight := 0
	if a.height > 0 {
		bodyHeight = max(a.height-lipgloss.Height(header)-lipgloss.Height(footer)-1, 1)
	}
	body := a.current.View(a.width, bodyHeight)
	if bodyHeight > 0 {
		body = fitHeight(body, bodyHeight)
	}
	return strings.Join([]string{header, body, footer}, "\n")
}
