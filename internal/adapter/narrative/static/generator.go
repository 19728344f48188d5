package static

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

const successText = `{{.Name}} {{if .Summary.MajorRealmCrossed}}shatters the barrier of {{realm .Summary.From.Realm}} and enters {{realm .Summary.To.Realm}}{{else}}advances from the {{.Summary.From.Stage}} to the {{.Summary.To.Stage}} stage of {{realm .Summary.To.Realm}}{{end}} through a {{.Summary.Type}} breakthrough.{{if gt .Summary.LifespanBonus 0}} Their lifespan grows by {{.Summary.LifespanBonus}} years.{{end}}`

const failureText = `{{.Name}} fails to break through at the {{.Summary.From.Stage}} stage of {{realm .Summary.From.Realm}} and loses {{.Summary.ExpLost}} cultivation.{{if .Summary.InnerDemonTriggered}} An inner demon takes root.{{end}}`

var funcs = template.FuncMap{
	"realm": func(r cultivation.Realm) string {
		return strings.ReplaceAll(r.String(), "_", " ")
	},
}

// Generator renders fixed templates; it is the offline default and never
// calls out.
type Generator struct {
	success *template.Template
	failure *template.Template
}

func New() Generator {
	return Generator{
		success: template.Must(template.New("success").Funcs(funcs).Parse(successText)),
		failure: template.Must(template.New("failure").Funcs(funcs).Parse(failureText)),
	}
}

type view struct {
	Name    string
	Summary cultivation.BreakthroughSummary
}

func (g Generator) DescribeBreakthrough(ctx context.Context, req ports.NarrativeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl := g.failure
	if req.Summary.Success {
		tmpl = g.success
	}
	if tmpl == nil {
		return "", fmt.Errorf("static narrative: generator not initialised")
	}
	name := strings.TrimSpace(req.Character.Name)
	if name == "" {
		name = "The cultivator"
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view{Name: name, Summary: req.Summary}); err != nil {
		return "", fmt.Errorf("static narrative: %w", err)
	}
	return buf.String(), nil
}
