package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/termslens/internal/model"
)

// ErrNotJSONObject is returned when the model reply is not a JSON object
var ErrNotJSONObject = errors.New("analysis is not a JSON object")

// UserRoles are the audiences every analysis covers, in display order
var UserRoles = []string{
	"🧑 Public User",
	"🧑‍💻 Developer",
	"🏢 Non-Developer",
	"🎓 Student",
	"🧒 Minor",
}

// GroupTitles are the point group titles requested for each role
var GroupTitles = []string{
	"Data Collected",
	"Terms You Are Agreeing To",
	"Does",
	"Don'ts",
}

// NotMentioned is what the model reports for a role the terms ignore
const NotMentioned = "This kind of person is not really talked about in specific in the terms and conditions"

const (
	AnalyzeSystemPrompt = "You are a legal assistant who explains API terms of service and documentation in plain language and answers only with JSON."
	AskSystemPrompt     = "You are a helpful assistant answering questions about the terms and rules of an API or website."
)

// BuildAnalyzePrompt builds the prompt that turns extracted terms text into
// the structured analysis object.
func BuildAnalyzePrompt(text string) string {
	var b strings.Builder

	b.WriteString("Read the API terms or documentation below and condense them into one structured JSON object.\n\n")
	b.WriteString("Write for a smart kid: short sentences, friendly tone, no legal jargon. ")
	b.WriteString("Be specific. Instead of \"they collect your data\", list what is collected (name, email, IP address, device info, usage patterns). ")
	b.WriteString("Point out the gray areas users skip or misread, and highlight rules that give the company broad power or push responsibility onto the user.\n\n")

	b.WriteString("1. \"summary\": a Markdown summary of the whole document: what the service is, what users agree to, and any surprising rules.\n")
	b.WriteString("2. \"userTypes\": one entry per role below, in this order:\n")
	for _, role := range UserRoles {
		fmt.Fprintf(&b, "   - %s\n", role)
	}
	b.WriteString("   Each entry has \"userType\" and \"points\". \"points\" is a list of {\"title\", \"items\"} objects using exactly these titles:\n")
	for _, title := range GroupTitles {
		fmt.Fprintf(&b, "   - %s\n", title)
	}
	b.WriteString("   Items should be concrete, e.g. \"You agree not to overload the servers or bypass login systems\" rather than \"You agree to follow the rules\".\n")
	fmt.Fprintf(&b, "   If the terms never address a role, set its \"points\" to the string %q.\n", NotMentioned)
	b.WriteString("3. \"importantNotices\": red flags and company powers (no refunds, account removal, changes without notice, sharing data with third parties). Be honest, not alarming.\n\n")

	b.WriteString("Only include what the terms actually say. Return valid JSON only, with no commentary or code fences:\n")
	b.WriteString(`{"summary": "<markdown>", "userTypes": [{"userType": "🧑 Public User", "points": [{"title": "Data Collected", "items": ["IP address", "browser version"]}]}], "importantNotices": ["The company can delete your account at any time."]}`)
	b.WriteString("\n\nHere are the rules:\n")
	b.WriteString(text)

	return b.String()
}

// MaxAskSourceChars caps how much of the extracted terms text is quoted in
// a follow-up prompt
const MaxAskSourceChars = 12000

// BuildAskPrompt builds the follow-up prompt from the stored analysis, the
// extracted source text (truncated to MaxAskSourceChars, omitted if empty), the
// earlier questions for the same URL and the new question.
func BuildAskPrompt(terms json.RawMessage, text string, chats []model.ChatEntry, question string) string {
	var b strings.Builder

	b.WriteString("A user has a question about the terms and rules of an API or website. ")
	b.WriteString("Using the context below, answer simply, clearly and in detail. If the answer is not in the context, say so.\n\n")

	b.WriteString("### CONTEXT:\n")
	if len(terms) == 0 {
		b.WriteString("(none)")
	} else {
		b.Write(terms)
	}
	if text = strings.TrimSpace(text); text != "" {
		b.WriteString("\n\n### SOURCE TEXT:\n")
		b.WriteString(truncateRunes(text, MaxAskSourceChars))
	}
	b.WriteString("\n\n### PREVIOUS CHATS:\n")
	if len(chats) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range chats {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", c.Question, c.Answer)
	}
	fmt.Fprintf(&b, "\n### QUESTION:\n%s\n\nAnswer:", question)

	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "\n[truncated]"
}

// ParseAnalysis decodes a model reply into an analysis. Markdown code
// fences around the JSON are tolerated. Raw holds the compacted object.
func ParseAnalysis(reply string) (*model.AnalysisResult, error) {
	body := []byte(StripCodeFences(reply))

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil || probe == nil {
		return nil, ErrNotJSONObject
	}

	var res model.AnalysisResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if res.UserTypes == nil {
		res.UserTypes = []model.UserTypeBlock{}
	}
	if res.ImportantNotices == nil {
		res.ImportantNotices = []string{}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return nil, fmt.Errorf("compact analysis: %w", err)
	}
	res.Raw = compact.Bytes()

	return &res, nil
}

// StripCodeFences removes a surrounding ``` or ```json fence
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
