package printer

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/seitarof/layout-lens/internal/layout"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Format selects how a layout is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name as accepted on the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Printer renders a resolved storage layout.
type Printer interface {
	Print(w io.Writer, fullyQualifiedName string, refs []layout.TypeReference) error
}

type textPrinter struct {
	tmpl *template.Template
}

type jsonPrinter struct{}

type textData struct {
	Contract string
	Nodes    []nodeView
}

type nodeView struct {
	Depth    int
	Ref      layout.TypeReference
	Children []nodeView
}

// New creates a printer for format.
func New(format Format) (Printer, error) {
	switch format {
	case FormatText, "":
		tmpl := template.Must(template.New("").Funcs(template.FuncMap{
			"padding":  padding,
			"location": location,
		}).ParseFS(templateFS, "templates/*.tmpl"))
		return &textPrinter{tmpl: tmpl}, nil
	case FormatJSON:
		return &jsonPrinter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func (p *textPrinter) Print(w io.Writer, fullyQualifiedName string, refs []layout.TypeReference) error {
	data := textData{Contract: fullyQualifiedName, Nodes: buildViews(refs, 0)}
	if err := p.tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	return nil
}

func buildViews(refs []layout.TypeReference, depth int) []nodeView {
	views := make([]nodeView, 0, len(refs))
	for _, r := range refs {
		views = append(views, nodeView{
			Depth:    depth,
			Ref:      r,
			Children: buildViews(r.SubType, depth+1),
		})
	}
	return views
}

// padding indents two spaces per level and marks nested members with "- ".
func padding(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("  ", depth) + "- "
}

func location(r layout.TypeReference) string {
	var b strings.Builder
	if r.Slot != "" {
		b.WriteString(" slot=")
		b.WriteString(r.Slot)
	}
	if r.Offset != nil {
		b.WriteString(" offset=")
		b.WriteString(strconv.Itoa(*r.Offset))
	}
	return b.String()
}

type jsonDocument struct {
	Contract string                 `json:"contract"`
	Storage  []layout.TypeReference `json:"storage"`
}

func (p *jsonPrinter) Print(w io.Writer, fullyQualifiedName string, refs []layout.TypeReference) error {
	if refs == nil {
		refs = []layout.TypeReference{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonDocument{Contract: fullyQualifiedName, Storage: refs}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
