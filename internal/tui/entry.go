package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskprofile/internal/account"
)

type entryField int

const (
	fieldEmail entryField = iota
	fieldPassword
	fieldName
)

type sessionCheckedMsg struct {
	owner   *EntryScreen
	present bool
}

type authResultMsg struct {
	owner *EntryScreen
	err   error
}

// EntryScreen signs users in or up.
type EntryScreen struct {
	backend account.Backend
	nav     Navigator
	keys    *KeyRegistry

	ctx       context.Context
	cancel    context.CancelFunc
	unmounted bool

	signUp bool
	inputs []textinput.Model
	focus  entryField
	busy   bool
	err    string
}

func NewEntryScreen(ctx context.Context, backend account.Backend, nav Navigator, keys *KeyRegistry) *EntryScreen {
	ctx, cancel := context.WithCancel(ctx)
	mk := func(prompt, placeholder string) textinput.Model {
		in := textinput.New()
		in.Prompt = prompt
		in.Placeholder = placeholder
		return in
	}
	email := mk("Email    ", "you@example.com")
	email.CharLimit = 254
	password := mk("Password ", "at least 8 characters")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 72
	name := mk("Name     ", "optional")
	name.CharLimit = 64
	email.Focus()
	return &EntryScreen{
		backend: backend,
		nav:     nav,
		keys:    keys,
		ctx:     ctx,
		cancel:  cancel,
		inputs:  []textinput.Model{email, password, name},
	}
}

func (s *EntryScreen) Title() string {
	if s.signUp {
		return "Sign up"
	}
	return "Sign in"
}

func (s *EntryScreen) Scope() string {
	if s.busy {
		return scopeEntryBusy
	}
	return scopeEntry
}

func (s *EntryScreen) Unmount() {
	s.unmounted = true
	s.cancel()
}

func (s *EntryScreen) Init() tea.Cmd {
	ctx := s.ctx
	return tea.Batch(textinput.Blink, func() tea.Msg {
		sess, err := s.backend.CurrentSession(ctx)
		if err != nil {
			slog.Warn("session check failed", "err", err)
		}
		return sessionCheckedMsg{owner: s, present: sess != nil}
	})
}

func (s *EntryScreen) fieldCount() int {
	if s.signUp {
		return 3
	}
	return 2
}

func (s *EntryScreen) setFocus(f entryField) tea.Cmd {
	s.inputs[s.focus].Blur()
	s.focus = f
	return s.inputs[s.focus].Focus()
}

func (s *EntryScreen) Update(msg tea.Msg) tea.Cmd {
	if s.unmounted {
		return nil
	}
	switch msg := msg.(type) {
	case sessionCheckedMsg:
		if msg.owner == s && msg.present {
			return s.nav.GoTo(RouteDashboard)
		}
		return nil
	case authResultMsg:
		if msg.owner != s {
			return nil
		}
		s.busy = false
		if msg.err == nil {
			return s.nav.GoTo(RouteDashboard)
		}
		slog.Error("authenticate", "err", msg.err, "sign_up", s.signUp)
		if se, ok := account.AsServiceError(msg.err); ok {
			s.err = se.Error()
		} else {
			s.err = "An unexpected error occurred"
		}
		return nil
	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch s.keys.ActionFor(msg.String(), scopeEntry) {
		case actionNext:
			return s.setFocus(entryField((int(s.focus) + 1) % s.fieldCount()))
		case actionPrev:
			return s.setFocus(entryField((int(s.focus) + s.fieldCount() - 1) % s.fieldCount()))
		case actionToggleMode:
			s.signUp = !s.signUp
			s.err = ""
			if !s.signUp && s.focus == fieldName {
				return s.setFocus(fieldEmail)
			}
			return nil
		case actionSubmit:
			return s.submit()
		}
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return cmd
}

// validate checks only presence; the backend owns the real rules.
func (s *EntryScreen) validate() error {
	if strings.TrimSpace(s.inputs[fieldEmail].Value()) == "" {
		return &account.ValidationError{Field: "Email", Reason: "is required"}
	}
	if s.inputs[fieldPassword].Value() == "" {
		return &account.ValidationError{Field: "Password", Reason: "is required"}
	}
	return nil
}

func (s *EntryScreen) submit() tea.Cmd {
	if err := s.validate(); err != nil {
		s.err = err.Error()
		return nil
	}
	s.err = ""
	s.busy = true
	ctx := s.ctx
	email := strings.TrimSpace(s.inputs[fieldEmail].Value())
	password := s.inputs[fieldPassword].Value()
	name := strings.TrimSpace(s.inputs[fieldName].Value())
	signUp := s.signUp
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = authResultMsg{owner: s, err: fmt.Errorf("panic: %v", r)}
			}
		}()
		var err error
		if signUp {
			_, err = s.backend.SignUp(ctx, email, password, name)
		} else {
			_, err = s.backend.SignIn(ctx, email, password)
		}
		return authResultMsg{owner: s, err: err}
	}
}

func (s *EntryScreen) View(width, height int) string {
	lines := []string{titleStyle.Render(s.Title()), ""}
	for i := 0; i < s.fieldCount(); i++ {
		lines = append(lines, s.inputs[i].View())
	}
	lines = append(lines, "")
	switch {
	case s.busy:
		lines = append(lines, mutedStyle.Render("Working..."))
	case s.err != "":
		lines = append(lines, errorStyle.Render(s.err))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
