// Package templates holds the HTMX fragments returned to browser clients.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ErrorAlert renders an error box with the user message, the suggested
// action and the reference code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		b.WriteString(`<p class="alert-message">`)
		b.WriteString(templ.EscapeString(message))
		b.WriteString(`</p>`)
		if action != "" {
			b.WriteString(`<p class="alert-action">`)
			b.WriteString(templ.EscapeString(action))
			b.WriteString(`</p>`)
		}
		if code != "" {
			b.WriteString(`<p class="alert-code">Code: `)
			b.WriteString(templ.EscapeString(code))
			b.WriteString(`</p>`)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportSummary renders the outcome of a CSV import with its diagnostics.
func ImportSummary(inserted, skipped int, diagnostics []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="import-summary">`)
		fmt.Fprintf(&b, `<p><span class="inserted">%d</span> flashcards imported, <span class="skipped">%d</span> rows skipped.</p>`,
			inserted, skipped)
		if len(diagnostics) > 0 {
			b.WriteString(`<ul class="import-diagnostics">`)
			for _, d := range diagnostics {
				b.WriteString(`<li>`)
				b.WriteString(templ.EscapeString(d))
				b.WriteString(`</li>`)
			}
			b.WriteString(`</ul>`)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
