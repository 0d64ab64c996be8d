package alerts

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
)

const (
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeDanger    = "#B91C1C"
)

// DefectLayout renders a defect as a plain HTML email: subject heading, a
// field table sorted by key, then free-form lines.
func DefectLayout(d Defect) string {
	var b strings.Builder
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, `<tr><td style="padding:4px 12px 4px 0;color:%s;">%s</td><td style="padding:4px 0;">%s</td></tr>`,
			themeTextMuted, html.EscapeString(k), html.EscapeString(d.Fields[k]))
	}
	rows := b.String()
	b.Reset()
	for _, l := range d.Lines {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(l))
	}
	items := b.String()

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<body style="margin:0;padding:24px;background-color:%s;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;color:%s;">
  <h1 style="font-size:20px;color:%s;margin:0 0 16px 0;">%s</h1>
  <table role="presentation" style="border-collapse:collapse;font-size:14px;">%s</table>
  <ul style="font-size:14px;line-height:1.6;">%s</ul>
  <p style="font-size:12px;color:%s;">Sent %s</p>
</body>
</html>`, themeBgBody, themeTextMain, themeDanger, html.EscapeString(d.Subject), rows, items, themeTextMuted, time.Now().UTC().Format(time.RFC3339))
}
