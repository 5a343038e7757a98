package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskprofile/internal/account"
)

func newProfile(t *testing.T) (*ProfileScreen, *mockBackend, *mockNavigator) {
	t.Helper()
	svc := &mockBackend{}
	nav := &mockNavigator{}
	s := NewProfileScreen(context.Background(), svc, nav, NewKeyRegistry())
	t.Cleanup(func() {
		svc.AssertExpectations(t)
		nav.AssertExpectations(t)
	})
	return s, svc, nav
}

// mounted runs the load command with a session and the given profile result.
func mounted(t *testing.T, name string) (*ProfileScreen, *mockBackend, *mockNavigator) {
	t.Helper()
	s, svc, nav := newProfile(t)
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil).Once()
	svc.On("Profile", mock.Anything, "u1").Return(account.Profile{UserID: "u1", DisplayName: name}, nil).Once()
	s.Update(s.load()())
	require.False(t, s.Loading())
	return s, svc, nav
}

func TestLoadingClearedOnEveryOutcome(t *testing.T) {
	cases := map[string]func(svc *mockBackend, nav *mockNavigator){
		"populated": func(svc *mockBackend, _ *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
			svc.On("Profile", mock.Anything, "u1").Return(account.Profile{DisplayName: "Alice"}, nil)
		},
		"not found": func(svc *mockBackend, _ *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
			svc.On("Profile", mock.Anything, "u1").Return(nil, account.ErrNotFound)
		},
		"profile error": func(svc *mockBackend, _ *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
			svc.On("Profile", mock.Anything, "u1").Return(nil, &account.ServiceError{Op: "profile", Message: "boom"})
		},
		"session error": func(svc *mockBackend, _ *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Return(nil, errors.New("store unreadable"))
		},
		"no session": func(svc *mockBackend, nav *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Return(nil, nil)
			nav.On("GoTo", RouteEntry).Return(navCmd(RouteEntry))
		},
		"panic": func(svc *mockBackend, _ *mockNavigator) {
			svc.On("CurrentSession", mock.Anything).Run(func(mock.Arguments) { panic("kaboom") })
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			s, svc, nav := newProfile(t)
			setup(svc, nav)
			assert.True(t, s.Loading())
			require.NotNil(t, s.Init())
			assert.True(t, s.Loading())

			s.Update(s.load()())
			assert.False(t, s.Loading())
		})
	}
}

func TestNoSessionRedirectsWithoutProfileFetch(t *testing.T) {
	s, svc, nav := newProfile(t)
	svc.On("CurrentSession", mock.Anything).Return(nil, nil)
	nav.On("GoTo", RouteEntry).Return(navCmd(RouteEntry)).Once()

	cmd := s.Update(s.load()())
	require.NotNil(t, cmd)
	assert.Equal(t, navigateMsg{route: RouteEntry}, cmd())
	svc.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	assert.Nil(t, s.notice)
}

func TestMissingProfileIsEmptyWithoutNotice(t *testing.T) {
	s, svc, _ := newProfile(t)
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
	svc.On("Profile", mock.Anything, "u1").Return(nil, account.ErrNotFound)

	s.Update(s.load()())
	assert.Equal(t, "", s.Committed())
	assert.Equal(t, "", s.Draft())
	assert.Nil(t, s.notice)
	assert.Contains(t, ansi.Strip(s.View(0, 0)), "Set your name")
}

func TestLoadFailureShowsNotice(t *testing.T) {
	s, svc, _ := newProfile(t)
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
	svc.On("Profile", mock.Anything, "u1").Return(nil, errors.New("db gone"))

	s.Update(s.load()())
	require.NotNil(t, s.notice)
	assert.Equal(t, msgLoadFailed, s.notice.Text)
	assert.Equal(t, "", s.Committed())
}

func TestLoadPopulatesCommittedAndDraft(t *testing.T) {
	s, _, _ := mounted(t, "Alice")
	assert.Equal(t, "Alice", s.Committed())
	assert.Equal(t, "Alice", s.Draft())
	assert.Equal(t, editViewing, s.EditState())
}

func TestEditCopiesCommittedAtThatMoment(t *testing.T) {
	s, svc, _ := mounted(t, "Alice")

	// A refresh changes committed before the user starts editing.
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil).Once()
	svc.On("Profile", mock.Anything, "u1").Return(account.Profile{UserID: "u1", DisplayName: "Bob"}, nil).Once()
	require.NotNil(t, s.Update(runes("r")))
	assert.True(t, s.Loading())
	s.Update(s.load()())

	s.Update(runes("e"))
	assert.Equal(t, editEditing, s.EditState())
	assert.Equal(t, "Bob", s.Draft())
}

func TestTypingOnlyChangesDraft(t *testing.T) {
	s, _, _ := mounted(t, "")
	s.Update(runes("e"))
	s.Update(runes("Al"))
	s.Update(runes("ice"))
	assert.Equal(t, "Alice", s.Draft())
	assert.Equal(t, "", s.Committed())
}

func TestCancelEditRestoresDraft(t *testing.T) {
	s, _, _ := mounted(t, "Alice")
	s.Update(runes("e"))
	s.input.SetValue("Something else")
	s.Update(keyEsc)
	assert.Equal(t, editViewing, s.EditState())
	assert.Equal(t, "Alice", s.Draft())
}

func TestWhitespaceDraftRejectedLocally(t *testing.T) {
	s, svc, _ := mounted(t, "Alice")
	s.Update(runes("e"))
	s.input.SetValue("   ")

	cmd := s.Update(keyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, editEditing, s.EditState())
	require.NotNil(t, s.notice)
	assert.Equal(t, msgEmptyName, s.notice.Text)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveSuccess(t *testing.T) {
	s, svc, _ := mounted(t, "")
	s.Update(runes("e"))
	s.input.SetValue("  Alice ")

	cmd := s.Update(keyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, editSaving, s.EditState())

	// enter while saving is ignored
	assert.Nil(t, s.Update(keyEnter))

	name := "Alice"
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil).Once()
	svc.On("UpdateProfile", mock.Anything, "u1", account.ProfileUpdate{DisplayName: &name}).Return(nil).Once()
	s.Update(cmd())

	assert.Equal(t, "Alice", s.Committed())
	assert.Equal(t, "Alice", s.Draft())
	assert.Equal(t, editViewing, s.EditState())
	require.NotNil(t, s.notice)
	assert.Equal(t, noticeSuccess, s.notice.Kind)
	assert.Equal(t, msgUpdated, s.notice.Text)

	s.Update(keyEnter)
	assert.Nil(t, s.notice, "enter dismisses the notice")
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	s, svc, _ := mounted(t, "Old")
	s.Update(runes("e"))
	s.input.SetValue("Alice")
	cmd := s.Update(keyEnter)
	require.NotNil(t, cmd)

	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil).Once()
	svc.On("UpdateProfile", mock.Anything, "u1", mock.Anything).
		Return(&account.ServiceError{Op: "update", Message: "network down"}).Once()
	s.Update(cmd())

	assert.Equal(t, "Old", s.Committed())
	assert.Equal(t, "Alice", s.Draft())
	assert.Equal(t, editEditing, s.EditState())
	require.NotNil(t, s.notice)
	assert.Equal(t, msgUpdateFailed, s.notice.Text)
}

func TestSaveWithoutSession(t *testing.T) {
	s, svc, _ := mounted(t, "Old")
	s.Update(runes("e"))
	s.input.SetValue("Alice")
	cmd := s.Update(keyEnter)

	svc.On("CurrentSession", mock.Anything).Return(nil, nil).Once()
	s.Update(cmd())
	assert.Equal(t, editEditing, s.EditState())
	assert.Equal(t, msgNotSignedIn, s.notice.Text)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveSessionErrorAndPanic(t *testing.T) {
	s, svc, _ := mounted(t, "Old")
	s.Update(runes("e"))
	s.input.SetValue("Alice")

	svc.On("CurrentSession", mock.Anything).Return(nil, errors.New("locked")).Once()
	s.Update(s.Update(keyEnter)())
	assert.Equal(t, msgUpdateFailed, s.notice.Text)
	assert.Equal(t, editEditing, s.EditState())

	s.Update(keyEsc)
	svc.On("CurrentSession", mock.Anything).Run(func(mock.Arguments) { panic("oops") }).Once()
	s.Update(s.Update(keyEnter)())
	assert.Equal(t, msgUpdateFailed, s.notice.Text)
	assert.Equal(t, "Alice", s.Draft())
}

func TestLogoutConfirmSuccessNavigates(t *testing.T) {
	s, svc, nav := mounted(t, "Alice")
	s.Update(runes("o"))
	assert.Equal(t, logoutConfirming, s.LogoutState())
	assert.Contains(t, ansi.Strip(s.View(80, 24)), "Are you sure")

	cmd := s.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, logoutSigningOut, s.LogoutState())
	assert.Equal(t, scopeLoggingOut, s.Scope())
	view := ansi.Strip(s.View(80, 24))
	assert.Contains(t, view, "Signing out...")
	assert.NotContains(t, view, "Are you sure")

	svc.On("SignOut", mock.Anything).Return(nil).Once()
	nav.On("GoTo", RouteEntry).Return(navCmd(RouteEntry)).Once()
	next := s.Update(cmd())
	require.NotNil(t, next)
	assert.Equal(t, navigateMsg{route: RouteEntry}, next())
}

func TestLogoutIgnoresKeysWhileSigningOut(t *testing.T) {
	s, svc, nav := mounted(t, "Alice")
	s.Update(runes("o"))
	cmd := s.Update(runes("y"))
	require.NotNil(t, cmd)

	for _, k := range []tea.KeyMsg{runes("o"), runes("y"), keyEnter, keyEsc, runes("e"), runes("q")} {
		assert.Nil(t, s.Update(k), k.String())
		assert.Equal(t, logoutSigningOut, s.LogoutState())
	}

	svc.On("SignOut", mock.Anything).Return(nil).Once()
	nav.On("GoTo", RouteEntry).Return(navCmd(RouteEntry)).Once()
	require.NotNil(t, s.Update(cmd()))
	svc.AssertNumberOfCalls(t, "SignOut", 1)
}

func TestLogoutFailureWithoutMessageIsGeneric(t *testing.T) {
	s, svc, _ := mounted(t, "Alice")
	s.Update(runes("o"))
	cmd := s.Update(keyEnter)
	require.NotNil(t, cmd)

	svc.On("SignOut", mock.Anything).Return(&account.ServiceError{Op: "signout", Err: errors.New("decrypt token")}).Once()
	assert.Nil(t, s.Update(cmd()))
	assert.Equal(t, logoutIdle, s.LogoutState())
	require.NotNil(t, s.notice)
	assert.Equal(t, msgLogoutUnexpected, s.notice.Text)
	assert.NotContains(t, s.notice.Text, "signout")
}

func TestLogoutFailureShowsServiceMessage(t *testing.T) {
	s, svc, nav := mounted(t, "Alice")
	s.Update(runes("o"))
	cmd := s.Update(keyEnter)
	require.NotNil(t, cmd)

	svc.On("SignOut", mock.Anything).Return(&account.ServiceError{Op: "signout", Message: "Session expired"}).Once()
	assert.Nil(t, s.Update(cmd()))
	assert.Equal(t, logoutIdle, s.LogoutState())
	require.NotNil(t, s.notice)
	assert.Equal(t, "Failed to log out: Session expired", s.notice.Text)
	nav.AssertNotCalled(t, "GoTo", mock.Anything)
}

func TestLogoutUnexpectedFailure(t *testing.T) {
	for name, run := range map[string]func(mock.Arguments){
		"plain error": nil,
		"panic":       func(mock.Arguments) { panic("bad") },
	} {
		t.Run(name, func(t *testing.T) {
			s, svc, nav := mounted(t, "Alice")
			s.Update(runes("o"))
			cmd := s.Update(runes("y"))
			call := svc.On("SignOut", mock.Anything).Return(errors.New("weird")).Once()
			if run != nil {
				call.Run(run)
			}
			s.Update(cmd())
			require.NotNil(t, s.notice)
			assert.Equal(t, msgLogoutUnexpected, s.notice.Text)
			nav.AssertNotCalled(t, "GoTo", mock.Anything)
		})
	}
}

func TestLogoutCancelNeverSignsOut(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("n"), keyEsc} {
		s, svc, _ := mounted(t, "Alice")
		s.Update(runes("o"))
		assert.Nil(t, s.Update(k))
		assert.Equal(t, logoutIdle, s.LogoutState())
		svc.AssertNotCalled(t, "SignOut", mock.Anything)
	}
}

func TestResultsAfterUnmountAreDropped(t *testing.T) {
	s, svc, _ := newProfile(t)
	svc.On("CurrentSession", mock.Anything).Return(aliceSession, nil)
	svc.On("Profile", mock.Anything, "u1").Return(account.Profile{DisplayName: "Alice"}, nil)
	msg := s.load()()

	s.Unmount()
	assert.ErrorIs(t, s.ctx.Err(), context.Canceled)
	assert.Nil(t, s.Update(msg))
	assert.True(t, s.Loading())
	assert.Equal(t, "", s.Committed())
}

func TestResultsForAnotherScreenAreDropped(t *testing.T) {
	s, _, _ := newProfile(t)
	other, _, _ := newProfile(t)
	s.Update(profileLoadedMsg{owner: other, name: "Mallory"})
	assert.True(t, s.Loading())
	assert.Equal(t, "", s.Committed())
}

func TestNoticeBlocksOtherKeys(t *testing.T) {
	s, _, _ := mounted(t, "Alice")
	s.notice = errorNotice("x")
	s.Update(runes("e"))
	assert.Equal(t, editViewing, s.EditState())
	s.Update(keyEsc)
	assert.Nil(t, s.notice)
}

func TestEscInViewingGoesToDashboard(t *testing.T) {
	s, _, nav := mounted(t, "Alice")
	nav.On("GoTo", RouteDashboard).Return(navCmd(RouteDashboard)).Once()
	require.NotNil(t, s.Update(keyEsc))
}

func TestLoadingView(t *testing.T) {
	s, _, _ := newProfile(t)
	assert.Contains(t, s.View(0, 0), "Loading profile...")
}
