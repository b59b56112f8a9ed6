package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ppiankov/termslens/internal/model"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"structured": func(k model.PointsKind) bool { return k == model.PointsStructured },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Terms Lens{{if .URL}} - {{.URL}}{{end}}</title>
</head>
<body>
<h1>Terms Lens</h1>
{{- if .URL}}
<p class="source">{{.URL}}</p>
{{- end}}
{{- if .SummaryHTML}}
<section class="summary">
<h2>Summary</h2>
{{.SummaryHTML}}
</section>
{{- end}}
{{- if .UserTypes}}
<section class="user-types">
<h2>Rules for Different Kinds of Users</h2>
{{- range .UserTypes}}
<div class="user-type">
<h3>{{.Label}}</h3>
{{- if structured .Kind}}
{{- range .Groups}}
<div class="group">
<h4>{{.Title}}</h4>
{{- if .Empty}}
<p class="empty">No details mentioned.</p>
{{- else}}
<ul>
{{- range .Items}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</div>
{{- end}}
{{- else}}
<p>{{.Text}}</p>
{{- end}}
</div>
{{- end}}
</section>
{{- end}}
{{- if .Notices}}
<section class="notices">
<h2>Important Notices</h2>
<ul>
{{- range .Notices}}
<li>{{.}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- if .Chat}}
<section class="chat">
<h2>Questions</h2>
{{- range .Chat}}
<div class="entry">
<p class="question">You: {{.Question}}</p>
<p class="answer">{{.Answer}}</p>
</div>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// HTML renders the view as a standalone page. Sections with nothing to
// show are left out entirely.
func HTML(v View) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
