package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskprofile/internal/account"
)

func newEntry(t *testing.T) (*EntryScreen, *mockBackend, *mockNavigator) {
	t.Helper()
	b := &mockBackend{}
	nav := &mockNavigator{}
	t.Cleanup(func() {
		b.AssertExpectations(t)
		nav.AssertExpectations(t)
	})
	return NewEntryScreen(context.Background(), b, nav, NewKeyRegistry()), b, nav
}

func TestEntrySkipsToDashboardWithSession(t *testing.T) {
	s, _, nav := newEntry(t)
	nav.On("GoTo", RouteDashboard).Return(navCmd(RouteDashboard)).Once()
	require.NotNil(t, s.Update(sessionCheckedMsg{owner: s, present: true}))
	assert.Nil(t, s.Update(sessionCheckedMsg{owner: s, present: false}))
}

func TestEntryRequiresEmailAndPassword(t *testing.T) {
	s, b, _ := newEntry(t)
	assert.Nil(t, s.Update(keyEnter))
	assert.Equal(t, "Email is required", s.err)

	s.Update(runes("a@example.com"))
	s.Update(keyEnter)
	assert.Equal(t, "Password is required", s.err)
	b.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestEntrySignIn(t *testing.T) {
	s, b, nav := newEntry(t)
	s.Update(runes("alice@example.com"))
	s.Update(keyTab)
	s.Update(runes("password123"))

	cmd := s.Update(keyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, scopeEntryBusy, s.Scope())

	b.On("SignIn", mock.Anything, "alice@example.com", "password123").Return(aliceSession, nil).Once()
	nav.On("GoTo", RouteDashboard).Return(navCmd(RouteDashboard)).Once()
	require.NotNil(t, s.Update(cmd()))
	assert.Equal(t, scopeEntry, s.Scope())
}

func TestEntrySignUpShowsServiceError(t *testing.T) {
	s, b, _ := newEntry(t)
	s.Update(keyCtrlR)
	assert.Equal(t, "Sign up", s.Title())
	s.Update(runes("alice@example.com"))
	s.Update(keyTab)
	s.Update(runes("password123"))
	s.Update(keyTab)
	s.Update(runes("Alice"))
	assert.Equal(t, fieldName, s.focus)

	cmd := s.Update(keyEnter)
	b.On("SignUp", mock.Anything, "alice@example.com", "password123", "Alice").
		Return(nil, &account.ServiceError{Op: "signup", Code: "user_already_exists", Message: "User already registered"}).Once()
	assert.Nil(t, s.Update(cmd()))
	assert.Equal(t, "User already registered", s.err)

	b.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("???")).Once()
	s.Update(s.Update(keyEnter)())
	assert.Equal(t, "An unexpected error occurred", s.err)
}

func TestEntryToggleBackMovesFocusOffName(t *testing.T) {
	s, _, _ := newEntry(t)
	s.Update(keyCtrlR)
	s.Update(keyTab)
	s.Update(keyTab)
	assert.Equal(t, fieldName, s.focus)
	s.Update(keyCtrlR)
	assert.Equal(t, fieldEmail, s.focus)
	s.Update(keyTab)
	s.Update(keyTab)
	assert.Equal(t, fieldEmail, s.focus, "sign-in cycles two fields")
}

func TestDashboardRedirectsWithoutSession(t *testing.T) {
	b := &mockBackend{}
	nav := &mockNavigator{}
	s := NewDashboardScreen(context.Background(), b, nav, NewKeyRegistry())
	b.On("CurrentSession", mock.Anything).Return(nil, nil).Once()
	nav.On("GoTo", RouteEntry).Return(navCmd(RouteEntry)).Once()
	require.NotNil(t, s.Update(s.Init()()))
	nav.AssertExpectations(t)
}

func TestDashboardOpensProfile(t *testing.T) {
	b := &mockBackend{}
	nav := &mockNavigator{}
	s := NewDashboardScreen(context.Background(), b, nav, NewKeyRegistry())
	b.On("CurrentSession", mock.Anything).Return(aliceSession, nil).Once()
	s.Update(s.Init()())
	assert.Contains(t, s.View(0, 0), "alice@example.com")

	nav.On("GoTo", RouteProfile).Return(navCmd(RouteProfile)).Once()
	require.NotNil(t, s.Update(runes("p")))
	nav.AssertExpectations(t)
}
