package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskprofile/internal/account"
)

type editState string

const (
	editViewing editState = "viewing"
	editEditing editState = "editing"
	editSaving  editState = "saving"
)

type logoutState string

const (
	logoutIdle       logoutState = "idle"
	logoutConfirming logoutState = "confirming"
	logoutSigningOut logoutState = "signing_out"
)

const (
	msgLoadFailed       = "Failed to load profile information"
	msgEmptyName        = "Username cannot be empty"
	msgNotSignedIn      = "You must be logged in to update your profile"
	msgUpdateFailed     = "Failed to update username"
	msgUpdated          = "Username updated successfully"
	msgLogoutUnexpected = "An unexpected error occurred during logout"
)

// Results carry the screen that issued them; anything addressed to another
// screen, or arriving after Unmount, is dropped.
type profileLoadedMsg struct {
	owner     *ProfileScreen
	name      string
	noSession bool
	err       error
}

type profileSavedMsg struct {
	owner   *ProfileScreen
	name    string
	failure string
	err     error
}

type signedOutMsg struct {
	owner *ProfileScreen
	err   error
}

// ProfileScreen shows and edits the signed-in user's display name and hosts
// the logout confirmation.
type ProfileScreen struct {
	svc  account.Service
	nav  Navigator
	keys *KeyRegistry

	ctx       context.Context
	cancel    context.CancelFunc
	unmounted bool

	loading   bool
	committed string
	input     textinput.Model
	edit      editState
	logout    logoutState
	notice    *notice
	spinner   spinner.Model
}

func NewProfileScreen(ctx context.Context, svc account.Service, nav Navigator, keys *KeyRegistry) *ProfileScreen {
	ctx, cancel := context.WithCancel(ctx)
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = "Your name"
	in.CharLimit = 64
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return &ProfileScreen{
		svc:     svc,
		nav:     nav,
		keys:    keys,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
		input:   in,
		edit:    editViewing,
		logout:  logoutIdle,
		spinner: sp,
	}
}

func (s *ProfileScreen) Title() string { return "Profile" }

func (s *ProfileScreen) Init() tea.Cmd {
	s.loading = true
	return tea.Batch(s.spinner.Tick, s.load())
}

func (s *ProfileScreen) Unmount() {
	s.unmounted = true
	s.cancel()
}

// Draft is the in-progress name. It equals Committed outside editing.
func (s *ProfileScreen) Draft() string        { return s.input.Value() }
func (s *ProfileScreen) Committed() string    { return s.committed }
func (s *ProfileScreen) Loading() bool        { return s.loading }
func (s *ProfileScreen) EditState() editState { return s.edit }
func (s *ProfileScreen) LogoutState() logoutState {
	return s.logout
}

func (s *ProfileScreen) Scope() string {
	switch {
	case s.notice != nil:
		return scopeNotice
	case s.logout == logoutConfirming:
		return scopeLogoutConfirm
	case s.logout == logoutSigningOut:
		return scopeLoggingOut
	case s.edit == editEditing:
		return scopeProfileEdit
	case s.edit == editSaving:
		return scopeProfileSaving
	case s.loading:
		return scopeProfileLoading
	default:
		return scopeProfileView
	}
}

func (s *ProfileScreen) load() tea.Cmd {
	ctx := s.ctx
	return func() (msg tea.Msg) {
		res := profileLoadedMsg{owner: s}
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("panic: %v", r)
				msg = res
			}
		}()
		sess, err := s.svc.CurrentSession(ctx)
		if err != nil {
			res.err = err
			return res
		}
		if sess == nil {
			res.noSession = true
			return res
		}
		p, err := s.svc.Profile(ctx, sess.UserID)
		switch {
		case account.IsNotFound(err):
		case err != nil:
			res.err = err
		default:
			res.name = p.DisplayName
		}
		return res
	}
}

func (s *ProfileScreen) save(name string) tea.Cmd {
	ctx := s.ctx
	return func() (msg tea.Msg) {
		res := profileSavedMsg{owner: s}
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("panic: %v", r)
				res.failure = msgUpdateFailed
				msg = res
			}
		}()
		sess, err := s.svc.CurrentSession(ctx)
		if err != nil {
			res.err, res.failure = err, msgUpdateFailed
			return res
		}
		if sess == nil {
			res.failure = msgNotSignedIn
			return res
		}
		if err := s.svc.UpdateProfile(ctx, sess.UserID, account.ProfileUpdate{DisplayName: &name}); err != nil {
			res.err, res.failure = err, msgUpdateFailed
			return res
		}
		res.name = name
		return res
	}
}

var errLogoutPanic = errors.New("sign-out panicked")

func (s *ProfileScreen) signOut() tea.Cmd {
	ctx := s.ctx
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = signedOutMsg{owner: s, err: fmt.Errorf("%w: %v", errLogoutPanic, r)}
			}
		}()
		return signedOutMsg{owner: s, err: s.svc.SignOut(ctx)}
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) tea.Cmd {
	if s.unmounted {
		return nil
	}
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.owner != s {
			return nil
		}
		return s.applyLoad(msg)
	case profileSavedMsg:
		if msg.owner != s {
			return nil
		}
		return s.applySave(msg)
	case signedOutMsg:
		if msg.owner != s {
			return nil
		}
		return s.applySignOut(msg)
	case spinner.TickMsg:
		if !s.loading {
			return nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	if s.edit == editEditing {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}
	return nil
}

func (s *ProfileScreen) applyLoad(msg profileLoadedMsg) tea.Cmd {
	s.loading = false
	switch {
	case msg.err != nil:
		slog.Error("load profile", "err", msg.err)
		s.notice = errorNotice(msgLoadFailed)
		return nil
	case msg.noSession:
		return s.nav.GoTo(RouteEntry)
	}
	s.committed = msg.name
	if s.edit == editViewing {
		s.input.SetValue(msg.name)
	}
	return nil
}

func (s *ProfileScreen) applySave(msg profileSavedMsg) tea.Cmd {
	if msg.failure != "" {
		if msg.err != nil {
			slog.Error("update display name", "err", msg.err)
		}
		s.edit = editEditing
		s.notice = errorNotice(msg.failure)
		return s.input.Focus()
	}
	s.committed = msg.name
	s.input.SetValue(msg.name)
	s.edit = editViewing
	s.notice = successNotice(msgUpdated)
	return nil
}

func (s *ProfileScreen) applySignOut(msg signedOutMsg) tea.Cmd {
	if msg.err == nil {
		return s.nav.GoTo(RouteEntry)
	}
	s.logout = logoutIdle
	slog.Error("sign out", "err", msg.err)
	if se, ok := account.AsServiceError(msg.err); ok && se.Message != "" {
		s.notice = errorNotice("Failed to log out: " + se.Message)
	} else {
		s.notice = errorNotice(msgLogoutUnexpected)
	}
	return nil
}

func (s *ProfileScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	scope := s.Scope()
	action := s.keys.ActionFor(msg.String(), scope)
	switch scope {
	case scopeNotice:
		if action == actionDismiss {
			s.notice = nil
		}
		return nil
	case scopeLogoutConfirm:
		switch action {
		case actionConfirm:
			s.logout = logoutSigningOut
			return s.signOut()
		case actionCancel:
			s.logout = logoutIdle
		}
		return nil
	case scopeProfileSaving, scopeLoggingOut:
		return nil
	case scopeProfileEdit:
		switch action {
		case actionSave:
			return s.submit()
		case actionCancel:
			s.input.SetValue(s.committed)
			s.input.Blur()
			s.edit = editViewing
			return nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	case scopeProfileLoading:
		switch action {
		case actionBack:
			return s.nav.GoTo(RouteDashboard)
		case actionQuit:
			return tea.Quit
		}
		return nil
	}

	switch action {
	case actionEdit:
		s.input.SetValue(s.committed)
		s.input.CursorEnd()
		s.edit = editEditing
		return s.input.Focus()
	case actionLogout:
		s.logout = logoutConfirming
	case actionRefresh:
		s.loading = true
		return tea.Batch(s.spinner.Tick, s.load())
	case actionBack:
		return s.nav.GoTo(RouteDashboard)
	case actionQuit:
		return tea.Quit
	}
	return nil
}

func (s *ProfileScreen) submit() tea.Cmd {
	name := strings.TrimSpace(s.input.Value())
	if name == "" {
		s.notice = errorNotice(msgEmptyName)
		return nil
	}
	s.edit = editSaving
	s.input.Blur()
	return s.save(name)
}

func (s *ProfileScreen) View(width, height int) string {
	var body string
	switch {
	case s.loading:
		body = s.spinner.View() + " Loading profile..."
	case s.logout == logoutSigningOut:
		body = labelStyle.Render("Display name") + "\n" + valueStyle.Render(s.committed) +
			"\n" + mutedStyle.Render("Signing out...")
	case s.edit == editViewing:
		name := valueStyle.Render(s.committed)
		if s.committed == "" {
			name = mutedStyle.Render("Set your name")
		}
		body = labelStyle.Render("Display name") + "\n" + name
	default:
		body = labelStyle.Render("Display name") + "\n" + s.input.View()
		if s.edit == editSaving {
			body += "\n" + mutedStyle.Render("Saving...")
		}
	}
	base := titleStyle.Render("Your profile") + "\n\n" + cardStyle.Render(body)

	switch {
	case s.notice != nil:
		return composeOverlay(base, s.notice.render(s.keys), width, height)
	case s.logout == logoutConfirming:
		prompt := titleStyle.Render("Log out") + "\n\nAre you sure you want to log out?\n\n" +
			helpLine(s.keys.HelpBindings(scopeLogoutConfirm))
		return composeOverlay(base, prompt, width, height)
	}
	return base
}
