package api

import (
	"bytes"
	"html/template"

	"github.com/gin-gonic/gin"
)

const pageTemplateText = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Reference}}<p>Reference: <strong>{{.Reference}}</strong></p>{{end}}
</body>
</html>`

var pageTemplate = template.Must(template.New("page").Parse(pageTemplateText))

type pageData struct {
	Title     string
	Message   string
	Reference string
}

func renderPage(c *gin.Context, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		c.String(status, data.Message)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
