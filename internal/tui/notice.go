package tui

import "github.com/charmbracelet/bubbles/key"

type noticeKind string

const (
	noticeError   noticeKind = "error"
	noticeSuccess noticeKind = "success"
)

// notice is a blocking message box; while one is open only dismiss keys work.
type notice struct {
	Kind noticeKind
	Text string
}

func errorNotice(text string) *notice   { return &notice{Kind: noticeError, Text: text} }
func successNotice(text string) *notice { return &notice{Kind: noticeSuccess, Text: text} }

func (n *notice) render(keys *KeyRegistry) string {
	title := okStyle.Bold(true).Render("Success")
	if n.Kind == noticeError {
		title = errorStyle.Bold(true).Render("Error")
	}
	return title + "\n\n" + n.Text + "\n\n" + helpLine(keys.HelpBindings(scopeNotice))
}

func helpLine(bindings []key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		out += titleStyle.Render(b.Help().Key) + " " + labelStyle.Render(b.Help().Desc)
	}
	return out
}
