package formatting

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"

	"glmcp/internal/registry"
	"glmcp/internal/schema"

	"github.com/Masterminds/sprig/v3"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DocParam is one parameter of an action in the generated reference.
type DocParam struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// DocAction is one action of a tool in the generated reference.
type DocAction struct {
	Name        string
	Description string
	Params      []DocParam
}

// DocTool is one tool in the generated reference.
type DocTool struct {
	Name        string
	Description string
	Actions     []DocAction
}

// DocPage is the input of the reference template.
type DocPage struct {
	Title   string
	Version string
	Gates   []string
	Tools   []DocTool
}

const markdownTemplate = `# {{ .Title }}
{{ if .Version }}
Generated by glmcp {{ .Version }}.
{{ end }}
{{ len .Tools }} tools.{{ if .Gates }} Groups can be switched off with {{ range $i, $g := .Gates }}{{ if $i }}, {{ end }}` + "`{{ $g }}`" + `{{ end }}.{{ end }}
{{ range .Tools }}
## {{ .Name }}

{{ .Description | default "No description." }}

| Action | Description | Parameters |
|---|---|---|
{{- range .Actions }}
| ` + "`{{ .Name }}`" + ` | {{ .Description | default "-" | replace "|" "\\|" }} | {{ paramList .Params }} |
{{- end }}
{{ end }}`

var (
	docTemplate     *template.Template
	docTemplateOnce sync.Once

	markdownRenderer     goldmark.Markdown
	markdownRendererOnce sync.Once
)

func getDocTemplate() *template.Template {
	docTemplateOnce.Do(func() {
		funcs := sprig.TxtFuncMap()
		funcs["paramList"] = paramList
		docTemplate = template.Must(template.New("reference").Funcs(funcs).Parse(markdownTemplate))
	})
	return docTemplate
}

func getMarkdownRenderer() goldmark.Markdown {
	markdownRendererOnce.Do(func() {
		markdownRenderer = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Parameter lists use <br> inside table cells.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	})
	return markdownRenderer
}

func paramList(params []DocParam) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		part := fmt.Sprintf("`%s`", p.Name)
		if p.Type != "" {
			part += " (" + p.Type + ")"
		}
		if p.Required {
			part += " **required**"
		}
		parts[i] = part
	}
	return strings.Join(parts, "<br>")
}

// BuildDocPage converts tool definitions into the template model. Unions
// yield one action per branch; flat schemas one action per enum value,
// each listing every parameter.
func BuildDocPage(title, version string, gates []string, defs []registry.ToolDefinition) DocPage {
	page := DocPage{Title: title, Version: version, Gates: gates}
	for _, def := range defs {
		page.Tools = append(page.Tools, DocTool{
			Name:        def.Name,
			Description: def.Description,
			Actions:     docActions(def.InputSchema),
		})
	}
	return page
}

func docActions(s *schema.Schema) []DocAction {
	if s == nil {
		return nil
	}

	if schema.IsUnion(s) {
		var actions []DocAction
		for _, b := range schema.Branches(s) {
			name := b.Action
			if !b.Identified {
				name = "?"
			}
			var desc string
			if prop, ok := schema.Property(b.Schema, schema.ActionProperty); ok {
				desc = prop.Description
			}
			actions = append(actions, DocAction{Name: name, Description: desc, Params: docParams(b.Schema)})
		}
		return actions
	}

	params := docParams(s)
	names, ok := schema.ActionEnum(s)
	if !ok {
		return []DocAction{{Name: "-", Params: params}}
	}
	actions := make([]DocAction, len(names))
	for i, name := range names {
		actions[i] = DocAction{Name: name, Params: params}
	}
	return actions
}

func docParams(s *schema.Schema) []DocParam {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	var params []DocParam
	for _, name := range schema.PropertyNames(s) {
		if name == schema.ActionProperty {
			continue
		}
		prop, _ := schema.Property(s, name)
		params = append(params, DocParam{
			Name:        name,
			Type:        prop.Type,
			Required:    required[name],
			Description: prop.Description,
		})
	}
	return params
}

// RenderMarkdown writes the reference page as Markdown.
func RenderMarkdown(w io.Writer, page DocPage) error {
	if err := getDocTemplate().Execute(w, page); err != nil {
		return fmt.Errorf("failed to render reference: %w", err)
	}
	return nil
}

// RenderHTML writes the reference page as an HTML fragment.
func RenderHTML(w io.Writer, page DocPage) error {
	var md bytes.Buffer
	if err := RenderMarkdown(&md, page); err != nil {
		return err
	}
	if err := getMarkdownRenderer().Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("failed to convert reference to HTML: %w", err)
	}
	return nil
}
