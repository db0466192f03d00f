// Package report formats the outcome of a level build for people: what was
// imported, which layers were left out and what the builder had to tolerate.
package report

import (
	"bytes"
	"fmt"
	"strings"

	goorg "github.com/niklasfasching/go-org/org"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/atlas-foundry/levelport/scene"
)

// Format enumerates report targets.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatOrg      Format = "org"
	FormatHTML     Format = "html"
)

// ParseFormat maps a name (or file extension) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "org":
		return FormatOrg, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", name)
}

// Render builds the report for one level. diag may be nil.
func Render(level *scene.Level, diag *scene.Diagnostics, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return write(level, diag, markdown), nil
	case FormatOrg:
		return normalizeOrg(write(level, diag, org))
	case FormatHTML:
		return renderHTML(write(level, diag, markdown))
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}

// dialect covers the few places where Markdown and Org disagree.
type dialect struct {
	heading   string
	code      func(string) string
	separator func(cols int) string
}

var markdown = dialect{
	heading: "#",
	code:    func(s string) string { return "`" + s + "`" },
	separator: func(cols int) string {
		return "|" + strings.Repeat("---|", cols)
	},
}

var org = dialect{
	heading: "*",
	code:    func(s string) string { return "~" + s + "~" },
	separator: func(cols int) string {
		return "|" + strings.TrimSuffix(strings.Repeat("---+", cols), "+") + "|"
	},
}

func write(level *scene.Level, diag *scene.Diagnostics, d dialect) string {
	var b strings.Builder
	h := func(depth int, title string) {
		fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat(d.heading, depth), title)
	}
	table := func(head []string, rows [][]string) {
		b.WriteString(row(head))
		b.WriteString(d.separator(len(head)))
		b.WriteString("\n")
		for _, r := range rows {
			b.WriteString(row(r))
		}
		b.WriteString("\n")
	}

	h(1, "Level "+level.Name)
	c := level.Count()
	table([]string{"Layers", "Meshes", "Prefab instances", "Prefab definitions"},
		[][]string{{itoa(c.Layers), itoa(c.Meshes), itoa(c.Prefabs), itoa(len(level.Prefabs))}})

	h(2, "Layers")
	if len(level.Layers) == 0 {
		b.WriteString("No layers imported.\n\n")
	} else {
		level.Walk(func(layer *scene.Layer, path []*scene.Layer) bool {
			fmt.Fprintf(&b, "%s- %s (%d prefabs, %d meshes)\n",
				strings.Repeat("  ", len(path)), layer.Name, len(layer.Prefabs), len(layer.Meshes))
			return true
		})
		b.WriteString("\n")
	}

	if keys := level.PrefabKeys(); len(keys) > 0 {
		h(2, "Prefabs")
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			p := level.Prefabs[k]
			rows = append(rows, []string{k, p.Library, itoa(len(p.Meshes))})
		}
		table([]string{"Prefab", "Library", "Meshes"}, rows)
	}

	if diag == nil {
		return b.String()
	}
	if len(diag.Warnings) > 0 {
		h(2, "Warnings")
		for _, w := range diag.Warnings {
			line := d.code(string(w.Kind))
			if w.File != "" {
				line += " " + w.File
			}
			if w.Field != "" {
				line += fmt.Sprintf(" %s=%q", w.Field, w.Value)
			}
			if w.Message != "" {
				line += ": " + w.Message
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(diag.Skipped) > 0 {
		h(2, "Skipped layers")
		for _, s := range diag.Skipped {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Reason)
		}
		b.WriteString("\n")
	}
	if len(diag.Errors) > 0 {
		h(2, "Errors")
		for _, e := range diag.Errors {
			fmt.Fprintf(&b, "- %s %s\n", d.code(string(e.Kind)), e.Error())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func row(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

func itoa(n int) string { return fmt.Sprint(n) }

func normalizeOrg(body string) (string, error) {
	doc := goorg.New().Parse(strings.NewReader(body), "")
	out, err := doc.Write(goorg.NewOrgWriter())
	if err != nil {
		return "", err
	}
	return out, nil
}

func renderHTML(body string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
