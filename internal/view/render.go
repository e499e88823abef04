package view

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
)

var allowedTags = map[string]bool{
	"div": true, "h1": true, "h2": true, "h3": true, "p": true, "span": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #ffffff; font-family: "Noto Sans JP", "Hiragino Sans", "Yu Gothic", sans-serif; }
table { border-collapse: collapse; }
</style>
</head>
<body style="width: {{.Width}}px">
{{.Body}}
</body>
</html>
`))

// Render writes v as a standalone HTML document with inline styles.
func (v *View) Render(w io.Writer) error {
	var body strings.Builder
	if v.Root != nil {
		if err := writeElement(&body, v.Root); err != nil {
			return err
		}
	}
	width := v.Width
	if width <= 0 {
		width = DefaultWidth
	}
	return pageTmpl.Execute(w, struct {
		Title string
		Width int
		Body  template.HTML
	}{
		Title: v.Title,
		Width: width,
		Body:  template.HTML(body.String()),
	})
}

// HTML is Render into a byte slice.
func (v *View) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeElement(b *strings.Builder, e *Element) error {
	if !allowedTags[e.Tag] {
		return fmt.Errorf("rendering view: unsupported tag %q", e.Tag)
	}
	b.WriteByte('<')
	b.WriteString(e.Tag)
	if e.ID != "" {
		fmt.Fprintf(b, ` id="%s"`, html.EscapeString(e.ID))
	}
	if e.Class != "" {
		fmt.Fprintf(b, ` class="%s"`, html.EscapeString(e.Class))
	}
	if css := e.Style.CSS(); css != "" {
		fmt.Fprintf(b, ` style="%s"`, html.EscapeString(css))
	}
	b.WriteByte('>')
	b.WriteString(html.EscapeString(e.Text))
	for _, ch := range e.Children {
		if err := writeElement(b, ch); err != nil {
			return err
		}
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
	return nil
}
