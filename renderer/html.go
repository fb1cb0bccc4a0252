package renderer

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var converter = goldmark.New(goldmark.WithExtensions(extension.GFM))

const pageHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
`

const pageFooter = `</body>
</html>
`

// HTML converts a markdown document into a standalone HTML page.
func HTML(title, markdown string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, pageHeader, html.EscapeString(title))
	if err := converter.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("cannot convert markdown to html: %w", err)
	}
	buf.WriteString(pageFooter)
	return buf.Bytes(), nil
}
