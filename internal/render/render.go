package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"autouploader/internal/logging"
)

var (
	errUnknownField = errors.New("unknown placeholder")
	errUnbalanced   = errors.New("unbalanced brace")
)

// Renderer holds the effective template set.
type Renderer struct {
	templates map[string]string
	logger    *slog.Logger
}

// NewRenderer layers overrides on top of DefaultTemplates. Blank overrides
// are ignored.
func NewRenderer(overrides map[string]string, logger *slog.Logger) *Renderer {
	templates := DefaultTemplates()
	for kind, body := range overrides {
		if strings.TrimSpace(body) == "" {
			continue
		}
		templates[strings.ToLower(strings.TrimSpace(kind))] = body
	}
	return &Renderer{templates: templates, logger: logging.NewComponentLogger(logger, "render")}
}

// Template returns the template used for kind.
func (r *Renderer) Template(kind string) string {
	if t, ok := r.templates[kind]; ok {
		return t
	}
	return r.templates[KindDefault]
}

// Render fills the template for kind. It never fails; see the package doc for
// the fallback layout.
func (r *Renderer) Render(kind string, ctx Context) string {
	values := ctx.Values()
	body, err := Expand(r.Template(kind), values)
	if err == nil {
		return body
	}
	logging.WarnWithContext(r.logger, "template could not be applied; using fallback body", "template_fallback",
		logging.String("template", kind),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the [templates] section for typos in placeholder names"),
		logging.String(logging.FieldImpact, "post body uses the minimal layout"),
	)
	return Fallback(values)
}

// Fallback is the layout used when a template cannot be applied.
func Fallback(values map[string]string) string {
	parts := []string{values["title"], values["overview"], values["thumbnail"], values["primary_links"]}
	if values["host_links"] != "" {
		parts = append(parts, "Mirror Links:\n"+values["host_links"])
	}
	return strings.Join(parts, "\n\n")
}

// Expand substitutes {name} placeholders from values.
func Expand(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl) + 256)
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w at offset %d", errUnbalanced, i)
			}
			name := tmpl[i+1 : i+1+end]
			value, ok := values[name]
			if !ok {
				return "", fmt.Errorf("%w %q", errUnknownField, name)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w at offset %d", errUnbalanced, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
