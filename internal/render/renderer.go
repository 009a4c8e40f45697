package render

import (
	"bytes"
	"text/template"

	"resultpay/internal/model"
)

// Renderer produces a deliverable document from an exam result.
type Renderer interface {
	RenderDocument(result *model.ExamResult) ([]byte, error)
}

const resultSheet = `EXAM RESULT
===========
Exam:      {{.ExamID}}
Candidate: {{.CandidateName}}
{{- if .Series}}
Series:    {{.Series}}
{{- end}}

{{printf "%s" .Data}}
`

type textRenderer struct {
	tmpl *template.Template
}

// NewTextRenderer creates a plain-text result sheet renderer.
func NewTextRenderer() Renderer {
	return &textRenderer{tmpl: template.Must(template.New("result").Parse(resultSheet))}
}

func (r *textRenderer) RenderDocument(result *model.ExamResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
