// Package export assembles the denormalized view of a finalized evaluation
// for the document-export collaborator. The collaborator owns all real
// formatting; this package produces the document model and a plain markdown
// rendering of it.
package export

import (
	"bytes"
	"text/template"
	"time"
)

// ThreatLine is one identified threat, resolved to display text.
type ThreatLine struct {
	Name         string `json:"name"`
	Significance string `json:"significance"`
	Notes        string `json:"notes,omitempty"`
}

// SafeguardLine is one applied safeguard, resolved to display text.
type SafeguardLine struct {
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// Document is the finalized evaluation with every reference resolved to
// text, so the export collaborator never needs the stores.
type Document struct {
	ReferenceNumber       string          `json:"reference_number"`
	CreatedAt             time.Time       `json:"created_at"`
	EntityName            string          `json:"entity_name"`
	EntityCategory        string          `json:"entity_category"`
	RelationshipKind      string          `json:"relationship_kind"`
	ServiceCode           string          `json:"service_code"`
	ServiceName           string          `json:"service_name"`
	LegalGatePassed       bool            `json:"legal_gate_passed"`
	LegalGateReason       string          `json:"legal_gate_reason"`
	ConclusionCode        string          `json:"conclusion_code"`
	ConclusionTitle       string          `json:"conclusion_title"`
	ConclusionDescription string          `json:"conclusion_description"`
	AuditorName           string          `json:"auditor_name,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	Threats               []ThreatLine    `json:"threats"`
	Safeguards            []SafeguardLine `json:"safeguards"`
}

var markdownTemplate = template.Must(template.New("evaluation").Parse(`# Service Evaluation {{.ReferenceNumber}}

Created: {{.CreatedAt.Format "2006-01-02"}}

## Engagement

- Entity: {{.EntityName}} ({{.EntityCategory}}, {{.RelationshipKind}})
- Service: {{.ServiceCode}} - {{.ServiceName}}
{{- if .AuditorName}}
- Auditor: {{.AuditorName}}
{{- end}}

## Legal gate

{{if .LegalGatePassed}}PASSED{{else}}BLOCKED{{end}}: {{.LegalGateReason}}

## Identified threats
{{if .Threats}}{{range .Threats}}
- {{.Name}} (significance: {{.Significance}}){{if .Notes}} - {{.Notes}}{{end}}
{{- end}}
{{else}}
None identified.
{{end}}

## Applied safeguards
{{if .Safeguards}}{{range .Safeguards}}
- {{.Description}}{{if .Notes}} - {{.Notes}}{{end}}
{{- end}}
{{else}}
None applied.
{{end}}

## Conclusion: {{.ConclusionCode}} - {{.ConclusionTitle}}

{{.ConclusionDescription}}
{{- if .Notes}}

Notes: {{.Notes}}
{{- end}}
`))

// RenderMarkdown renders the document as a markdown report.
func (d *Document) RenderMarkdown() ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename suggests a download name for the rendered document.
func (d *Document) Filename() string {
	return "SDA_Evaluation_" + d.ReferenceNumber + ".md"
}
