package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FallbackSummary is shown when an analysis request fails for any reason
const FallbackSummary = "Something went wrong."

// AnalysisContext is the opaque backend payload that accompanies an analysis.
// It is stored and forwarded with every question, never inspected.
type AnalysisContext = json.RawMessage

// AnalysisResult is the structured analysis of one terms/documentation page
type AnalysisResult struct {
	Summary          string          `json:"summary"`          // Markdown
	UserTypes        []UserTypeBlock `json:"userTypes"`        // Rules per kind of user
	ImportantNotices []string        `json:"importantNotices"` // Red flags and risks
	Raw              AnalysisContext `json:"-"`                // Full backend response
}

// Fallback returns the result shown after a failed analysis
func Fallback() *AnalysisResult {
	return &AnalysisResult{
		Summary:          FallbackSummary,
		UserTypes:        []UserTypeBlock{},
		ImportantNotices: []string{},
	}
}

// Clone returns a deep copy of the result
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := &AnalysisResult{
		Summary:          r.Summary,
		UserTypes:        make([]UserTypeBlock, len(r.UserTypes)),
		ImportantNotices: append([]string{}, r.ImportantNotices...),
		Raw:              cloneRaw(r.Raw),
	}
	for i, ut := range r.UserTypes {
		out.UserTypes[i] = UserTypeBlock{UserType: ut.UserType, Points: ut.Points.Clone()}
	}
	return out
}

func cloneRaw(raw AnalysisContext) AnalysisContext {
	if raw == nil {
		return nil
	}
	return append(AnalysisContext{}, raw...)
}

// UserTypeBlock holds the rules that apply to one kind of user
type UserTypeBlock struct {
	UserType string `json:"userType"`
	Points   Points `json:"points"`
}

// PointGroup is a titled group of rule items. Empty Items means the terms
// mention nothing for this title.
type PointGroup struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// PointsKind discriminates the two shapes a user type's points can take
type PointsKind int

const (
	PointsFreeform   PointsKind = iota // A single free-text statement
	PointsStructured                   // An ordered list of PointGroup
)

func (k PointsKind) String() string {
	switch k {
	case PointsStructured:
		return "structured"
	default:
		return "freeform"
	}
}

// Points is either free text or a sequence of groups. The backend sends a
// JSON string for the former and an array for the latter.
type Points struct {
	Kind   PointsKind
	Text   string
	Groups []PointGroup
}

// Freeform builds a free-text Points value
func Freeform(text string) Points {
	return Points{Kind: PointsFreeform, Text: text}
}

// Structured builds a grouped Points value
func Structured(groups ...PointGroup) Points {
	if groups == nil {
		groups = []PointGroup{}
	}
	return Points{Kind: PointsStructured, Groups: groups}
}

// Clone returns a deep copy
func (p Points) Clone() Points {
	out := Points{Kind: p.Kind, Text: p.Text}
	if p.Groups != nil {
		out.Groups = make([]PointGroup, len(p.Groups))
		for i, g := range p.Groups {
			out.Groups[i] = PointGroup{Title: g.Title, Items: append([]string{}, g.Items...)}
		}
	}
	return out
}

// MarshalJSON writes a string for freeform points and an array otherwise
func (p Points) MarshalJSON() ([]byte, error) {
	if p.Kind == PointsStructured {
		groups := p.Groups
		if groups == nil {
			groups = []PointGroup{}
		}
		return json.Marshal(groups)
	}
	return json.Marshal(p.Text)
}

// UnmarshalJSON accepts a JSON string, a JSON array of groups, or null
func (p *Points) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*p = Structured()
		return nil
	case trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("decode freeform points: %w", err)
		}
		*p = Freeform(text)
		return nil
	case trimmed[0] == '[':
		var groups []PointGroup
		if err := json.Unmarshal(trimmed, &groups); err != nil {
			return fmt.Errorf("decode point groups: %w", err)
		}
		for i := range groups {
			if groups[i].Items == nil {
				groups[i].Items = []string{}
			}
		}
		*p = Structured(groups...)
		return nil
	default:
		return fmt.Errorf("points must be a string or an array, got %q", string(trimmed[:1]))
	}
}

// ChatEntry is one answered question. Entries are never modified.
type ChatEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
