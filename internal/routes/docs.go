package routes

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymScheduleBack/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    body { margin: 0; font-family: Georgia, "Times New Roman", serif; color: #132019; background: #f6f7f4; }
    main { max-width: 1120px; margin: 0 auto; padding: 48px 20px 64px; }
    .panel { background: #fff; border: 1px solid #d8ddd6; border-radius: 18px; padding: 24px; margin-bottom: 20px; }
    h1 { margin: 0 0 12px; }
    a.button { display: inline-block; margin-right: 12px; padding: 10px 16px; border-radius: 999px; background: #1f6f4a; color: #fff; text-decoration: none; }
    table { width: 100%; border-collapse: collapse; }
    td, th { text-align: left; padding: 6px 8px; border-bottom: 1px solid #d8ddd6; font-family: monospace; }
    pre { margin: 0; padding: 20px; overflow: auto; border-radius: 14px; background: #0f172a; color: #e2e8f0; }
  </style>
</head>
<body>
  <main>
    <section class="panel">
      <h1>{{ .Title }}</h1>
      <p>Version {{ .Version }}. Loaded {{ .LoadedAt }}.</p>
      <a class="button" href="/docs/openapi.yaml">Raw YAML</a>
      <a class="button" href="/docs/openapi.json">JSON</a>
    </section>
    <section class="panel">
      <table>
        <tr><th>Method</th><th>Path</th><th>Summary</th></tr>
        {{ range .Operations }}<tr><td>{{ .Method }}</td><td>{{ .Path }}</td><td>{{ .Summary }}</td></tr>
        {{ end }}
      </table>
    </section>
    <section class="panel">
      <pre>{{ .Spec }}</pre>
    </section>
  </main>
</body>
</html>
`

type openAPIDocument struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

type docsOperation struct {
	Method  string
	Path    string
	Summary string
}

type docsPageData struct {
	Title      string
	Version    string
	LoadedAt   string
	Operations []docsOperation
	Spec       string
}

var httpMethods = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "patch": {}, "delete": {},
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	doc, err := parseOpenAPISpec(openAPISpec)
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}
	specJSON, err := openAPISpecJSON(openAPISpec)
	if err != nil {
		return fmt.Errorf("convert openapi spec: %w", err)
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	pageData := docsPageData{
		Title:      doc.Info.Title + " Docs",
		Version:    doc.Info.Version,
		LoadedAt:   time.Now().UTC().Format(time.RFC3339),
		Operations: listOperations(doc),
		Spec:       string(openAPISpec),
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(openAPISpec)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		return c.Status(fiber.StatusOK).Send(specJSON)
	})

	return nil
}

func parseOpenAPISpec(raw []byte) (*openAPIDocument, error) {
	var doc openAPIDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Info.Title == "" || len(doc.Paths) == 0 {
		return nil, fmt.Errorf("openapi spec is missing info.title or paths")
	}
	return &doc, nil
}

func openAPISpecJSON(raw []byte) ([]byte, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func listOperations(doc *openAPIDocument) []docsOperation {
	operations := make([]docsOperation, 0, len(doc.Paths))
	for path, item := range doc.Paths {
		for method, node := range item {
			if _, ok := httpMethods[method]; !ok {
				continue
			}
			var op struct {
				Summary string `yaml:"summary"`
			}
			_ = node.Decode(&op)
			operations = append(operations, docsOperation{
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: op.Summary,
			})
		}
	}
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path == operations[j].Path {
			return operations[i].Method < operations[j].Method
		}
		return operations[i].Path < operations[j].Path
	})
	return operations
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("Cross-Origin-Resource-Policy", "same-origin")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
