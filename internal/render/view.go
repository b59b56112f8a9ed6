// Package render projects session state into views. Nothing here mutates
// the session; every function is a pure function of a snapshot.
package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// NoDetails is printed for a point group that lists no items
const NoDetails = "No details mentioned."

// View is the renderable projection of a session
type View struct {
	Mode        session.Mode
	URL         string
	Loading     bool
	Asking      bool
	Summary     string        // raw markdown, for terminal rendering
	SummaryHTML template.HTML // sanitized
	UserTypes   []UserTypePanel
	Notices     []string
	Chat        []model.ChatEntry
	Pending     string
	Error       string
}

// UserTypePanel is one user type's rules. Exactly one of Text or Groups is
// meaningful, as selected by Kind.
type UserTypePanel struct {
	Label  string
	Kind   model.PointsKind
	Text   string
	Groups []GroupPanel
}

// GroupPanel is a titled group of items
type GroupPanel struct {
	Title string
	Items []string
}

// Empty reports whether the group has nothing to list
func (g GroupPanel) Empty() bool {
	return len(g.Items) == 0
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// The summary comes from the backend, which in turn paraphrases an
	// arbitrary third-party page. It is sanitized before being trusted.
	sanitizer = bluemonday.UGCPolicy()
)

// Project builds the view for a session snapshot
func Project(st session.State) View {
	v := View{
		Mode:    st.Mode(),
		URL:     st.URL,
		Loading: st.IsLoadingAnalysis,
		Asking:  st.IsAsking,
		Chat:    append([]model.ChatEntry{}, st.ChatLog...),
		Pending: st.PendingQuestion,
		Error:   st.LastError,
	}

	if st.Analysis == nil {
		return v
	}

	v.Summary = st.Analysis.Summary
	v.SummaryHTML = SummaryHTML(st.Analysis.Summary)
	v.UserTypes = userTypePanels(st.Analysis.UserTypes)
	v.Notices = append([]string{}, st.Analysis.ImportantNotices...)

	return v
}

// SummaryHTML converts summary markdown to sanitized HTML. If conversion
// fails the escaped source is returned instead.
func SummaryHTML(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(md) + "</p>")
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

func userTypePanels(blocks []model.UserTypeBlock) []UserTypePanel {
	if len(blocks) == 0 {
		return nil
	}

	panels := make([]UserTypePanel, 0, len(blocks))
	for _, b := range blocks {
		panel := UserTypePanel{Label: b.UserType, Kind: b.Points.Kind}
		switch b.Points.Kind {
		case model.PointsFreeform:
			panel.Text = b.Points.Text
		case model.PointsStructured:
			panel.Groups = make([]GroupPanel, 0, len(b.Points.Groups))
			for _, g := range b.Points.Groups {
				panel.Groups = append(panel.Groups, GroupPanel{
					Title: g.Title,
					Items: append([]string{}, g.Items...),
				})
			}
		}
		panels = append(panels, panel)
	}
	return panels
}
