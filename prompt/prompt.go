// Package prompt assembles the generation prompt from the question, the
// retrieved context chunks, and the trailing conversation history.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/aoleynikov/bobchat/store"
)

type Template interface {
	Render(question string, chunks []store.Scored, history []store.Message) (string, error)
}

const defaultTemplateText = `You are a helpful assistant answering questions about the user's documents.

{{- if .Chunks}}

Context from the knowledge base:
{{- range .Chunks}}
[{{.Filename}} #{{.ChunkIndex}}]
{{.Text}}
{{- end}}
{{- end}}
{{- if .History}}

Recent conversation:
{{- range .History}}
{{.Participant}}: {{.Content}}
{{- end}}
{{- end}}

Question: {{.Question}}

Answer using the context above when it is relevant. If the context does not cover the question, say so and answer from general knowledge.
`

type templateData struct {
	Question string
	Chunks   []store.Scored
	History  []store.Message
}

// TextTemplate renders the RAG prompt through text/template.
type TextTemplate struct {
	tmpl *template.Template
}

// NewDefault returns a TextTemplate using the built-in prompt layout.
func NewDefault() *TextTemplate {
	return &TextTemplate{tmpl: template.Must(template.New("rag").Parse(defaultTemplateText))}
}

// NewFromFile loads a prompt template from disk, for deployments that tune
// the wording without rebuilding.
func NewFromFile(path string) (*TextTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	tmpl, err := template.New("rag").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &TextTemplate{tmpl: tmpl}, nil
}

func (t *TextTemplate) Render(question string, chunks []store.Scored, history []store.Message) (string, error) {
	var sb strings.Builder
	err := t.tmpl.Execute(&sb, templateData{
		Question: question,
		Chunks:   chunks,
		History:  history,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

var _ Template = (*TextTemplate)(nil)
