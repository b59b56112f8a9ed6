package render

import (
	"strings"
	"testing"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedState() session.State {
	return session.State{
		URL:         "https://api.example.com/docs",
		AnalyzedURL: "https://api.example.com/docs",
		Analysis: &model.AnalysisResult{
			Summary: "# Terms",
			UserTypes: []model.UserTypeBlock{
				{UserType: "Free", Points: model.Freeform("Limited to 100 req/day")},
			},
			ImportantNotices: []string{"Rate limited"},
		},
		Context: model.AnalysisContext(`{}`),
		ChatLog: []model.ChatEntry{},
	}
}

func TestProject_Unanalyzed(t *testing.T) {
	v := Project(session.State{URL: "https://x.example.com", IsLoadingAnalysis: true})

	assert.Equal(t, session.Unanalyzed, v.Mode)
	assert.True(t, v.Loading)
	assert.Empty(t, v.SummaryHTML)
	assert.Nil(t, v.UserTypes)
	assert.Nil(t, v.Notices)
}

func TestProject_Scenario(t *testing.T) {
	v := Project(analyzedState())

	assert.Equal(t, session.Analyzed, v.Mode)
	assert.Contains(t, string(v.SummaryHTML), "<h1")
	assert.Contains(t, string(v.SummaryHTML), "Terms")
	require.Len(t, v.UserTypes, 1)
	assert.Equal(t, model.PointsFreeform, v.UserTypes[0].Kind)
	assert.Equal(t, "Limited to 100 req/day", v.UserTypes[0].Text)
	assert.Equal(t, []string{"Rate limited"}, v.Notices)
}

func TestProject_DoesNotAliasState(t *testing.T) {
	st := analyzedState()
	st.Analysis.UserTypes = []model.UserTypeBlock{
		{UserType: "Dev", Points: model.Structured(model.PointGroup{Title: "Does", Items: []string{"cache"}})},
	}
	st.ChatLog = []model.ChatEntry{{Question: "q", Answer: "a"}}

	v := Project(st)
	v.UserTypes[0].Groups[0].Items[0] = "changed"
	v.Notices[0] = "changed"
	v.Chat[0].Answer = "changed"

	assert.Equal(t, "cache", st.Analysis.UserTypes[0].Points.Groups[0].Items[0])
	assert.Equal(t, "Rate limited", st.Analysis.ImportantNotices[0])
	assert.Equal(t, "a", st.ChatLog[0].Answer)
}

func TestSummaryHTML_Sanitized(t *testing.T) {
	out := string(SummaryHTML("Hello <script>alert(1)</script> **world** [x](javascript:alert(1))"))

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "<strong>world</strong>")
}

func TestHTML_ScenarioPage(t *testing.T) {
	page, err := HTML(Project(analyzedState()))
	require.NoError(t, err)

	assert.Contains(t, page, "Rules for Different Kinds of Users")
	assert.Contains(t, page, "<h3>Free</h3>")
	assert.Contains(t, page, "<p>Limited to 100 req/day</p>")
	assert.Contains(t, page, "<li>Rate limited</li>")
	assert.NotContains(t, page, `class="chat"`, "empty chat renders nothing")
}

func TestHTML_EmptyGroupShowsNoDetails(t *testing.T) {
	st := analyzedState()
	st.Analysis.UserTypes = []model.UserTypeBlock{{
		UserType: "Minor",
		Points: model.Structured(
			model.PointGroup{Title: "Data Collected", Items: []string{}},
			model.PointGroup{Title: "Does", Items: []string{"ask a parent"}},
		),
	}}

	page, err := HTML(Project(st))
	require.NoError(t, err)

	dataIdx := strings.Index(page, "<h4>Data Collected</h4>")
	doesIdx := strings.Index(page, "<h4>Does</h4>")
	require.True(t, dataIdx >= 0 && doesIdx > dataIdx, "groups keep their order")

	emptyGroup := page[dataIdx:doesIdx]
	assert.Contains(t, emptyGroup, NoDetails)
	assert.NotContains(t, emptyGroup, "<ul>", "an empty group has no list")
	assert.Contains(t, page[doesIdx:], "<li>ask a parent</li>")
}

func TestHTML_EmptySectionsOmitted(t *testing.T) {
	st := analyzedState()
	st.Analysis = model.Fallback()

	page, err := HTML(Project(st))
	require.NoError(t, err)

	assert.Contains(t, page, "Something went wrong.")
	assert.NotContains(t, page, "user-types")
	assert.NotContains(t, page, "Rules for Different Kinds of Users")
	assert.NotContains(t, page, "notices")
	assert.NotContains(t, page, "Important Notices")
}

func TestHTML_EscapesUserTypeText(t *testing.T) {
	st := analyzedState()
	st.Analysis.UserTypes[0].Points = model.Freeform("<b>bold</b>")

	page, err := HTML(Project(st))
	require.NoError(t, err)
	assert.Contains(t, page, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestHTML_ChatEntries(t *testing.T) {
	st := analyzedState()
	st.ChatLog = []model.ChatEntry{{Question: "What is the rate limit?", Answer: "100 requests per day"}}

	page, err := HTML(Project(st))
	require.NoError(t, err)
	assert.Contains(t, page, "You: What is the rate limit?")
	assert.Contains(t, page, "100 requests per day")
}

func TestTerminal_Sections(t *testing.T) {
	st := analyzedState()
	st.Analysis.UserTypes = append(st.Analysis.UserTypes, model.UserTypeBlock{
		UserType: "Student",
		Points:   model.Structured(model.PointGroup{Title: "Don'ts", Items: nil}),
	})

	out := Terminal(Project(st), TerminalOptions{Width: 80, Style: "notty"})

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Terms")
	assert.Contains(t, out, "Limited to 100 req/day")
	assert.Contains(t, out, "Student")
	assert.Contains(t, out, NoDetails)
	assert.Contains(t, out, "Rate limited")
}

func TestTerminal_FallbackHasOnlySummary(t *testing.T) {
	st := analyzedState()
	st.Analysis = model.Fallback()

	out := Terminal(Project(st), TerminalOptions{Width: 80, Style: "notty"})
	assert.Contains(t, out, "Something went wrong.")
	assert.NotContains(t, out, "Rules for Different Kinds of Users")
	assert.NotContains(t, out, "Important Notices")
}

func TestTranscript(t *testing.T) {
	empty := Transcript(View{}, 60)
	assert.Contains(t, empty, "No questions yet")

	v := View{
		Chat:  []model.ChatEntry{{Question: "What is the rate limit?", Answer: "100 requests per day"}},
		Error: "unexpected status: 500",
	}
	out := Transcript(v, 60)
	assert.Contains(t, out, "What is the rate limit?")
	assert.Contains(t, out, "100 requests per day")
	assert.Contains(t, out, "unexpected status: 500")
}
