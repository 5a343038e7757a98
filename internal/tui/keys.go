package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

// KeyRegistry maps key names to actions per scope. Lookups fall back to the
// global scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal         = "global"
	scopeNotice         = "notice"
	scopeProfileLoading = "profile_loading"
	scopeProfileView    = "profile_view"
	scopeProfileEdit    = "profile_edit"
	scopeProfileSaving  = "profile_saving"
	scopeLogoutConfirm  = "logout_confirm"
	scopeLoggingOut     = "logging_out"
	scopeEntry          = "entry"
	scopeEntryBusy      = "entry_busy"
	scopeDashboard      = "dashboard"
)

const (
	actionQuit       Action = "quit"
	actionDismiss    Action = "dismiss"
	actionEdit       Action = "edit"
	actionSave       Action = "save"
	actionCancel     Action = "cancel"
	actionLogout     Action = "logout"
	actionConfirm    Action = "confirm"
	actionRefresh    Action = "refresh"
	actionBack       Action = "back"
	actionNext       Action = "next"
	actionPrev       Action = "prev"
	actionSubmit     Action = "submit"
	actionToggleMode Action = "toggle_mode"
	actionProfile    Action = "profile"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	// Global fallback lookup. Only chords here: plain runes belong to text inputs.
	reg(scopeGlobal, actionQuit, []string{"ctrl+c"}, "quit")

	reg(scopeNotice, actionDismiss, []string{"enter", "esc"}, "dismiss")

	reg(scopeProfileLoading, actionBack, []string{"esc"}, "back")
	reg(scopeProfileLoading, actionQuit, []string{"q"}, "quit")

	reg(scopeProfileView, actionEdit, []string{"e"}, "edit name")
	reg(scopeProfileView, actionLogout, []string{"o"}, "log out")
	reg(scopeProfileView, actionRefresh, []string{"r"}, "refresh")
	reg(scopeProfileView, actionBack, []string{"esc"}, "back")
	reg(scopeProfileView, actionQuit, []string{"q"}, "quit")

	reg(scopeProfileEdit, actionSave, []string{"enter"}, "save")
	reg(scopeProfileEdit, actionCancel, []string{"esc"}, "cancel")

	reg(scopeLogoutConfirm, actionConfirm, []string{"y", "enter"}, "log out")
	reg(scopeLogoutConfirm, actionCancel, []string{"n", "esc"}, "cancel")

	reg(scopeEntry, actionNext, []string{"tab", "down"}, "next field")
	reg(scopeEntry, actionPrev, []string{"shift+tab", "up"}, "prev field")
	reg(scopeEntry, actionSubmit, []string{"enter"}, "submit")
	reg(scopeEntry, actionToggleMode, []string{"ctrl+r"}, "sign in/up")

	reg(scopeDashboard, actionProfile, []string{"p"}, "profile")
	reg(scopeDashboard, actionQuit, []string{"q"}, "quit")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 || r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

// ActionFor is Lookup reduced to the action name, "" when unbound.
func (r *KeyRegistry) ActionFor(keyName, scope string) Action {
	if b := r.Lookup(keyName, scope); b != nil {
		return b.Action
	}
	return ""
}

func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		if len(b.Keys) == 0 {
			continue
		}
		helpKey := b.Keys[0]
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(helpKey, b.Help)))
	}
	return out
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	if scope == "" {
		return nil
	}
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		ch := trimmed[0]
		if ch >= 'A' && ch <= 'Z' {
			// Uppercase runes stay distinct from their lowercase binding.
			return trimmed
		}
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
