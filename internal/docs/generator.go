package docs

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// OpenAPISpec represents an OpenAPI 3.0 document
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi"`
	Info    Info                `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
	Tags    []Tag               `json:"tags"`
}

// Info contains metadata about the API
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// PathItem holds the operations of one path
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation represents an HTTP operation
type Operation struct {
	Summary     string              `json:"summary,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	OperationID string              `json:"operationId"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	Security    []map[string][]any  `json:"security,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter is a path parameter
type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Schema   Schema `json:"schema"`
}

// Response represents an HTTP response
type Response struct {
	Description string `json:"description"`
}

// Schema represents a JSON schema
type Schema struct {
	Type string `json:"type,omitempty"`
}

// Tag groups operations by their first path segment after /api
type Tag struct {
	Name string `json:"name"`
}

// Route describes a documented route; Public routes skip the bearer token.
type Route struct {
	Summary string
	Public  bool
}

// Generate builds an OpenAPI document for every registered route that has an
// entry in described. Undescribed routes are left out.
func Generate(routes gin.RoutesInfo, described map[string]Route, version string) *OpenAPISpec {
	spec := &OpenAPISpec{
		OpenAPI: "3.0.0",
		Info: Info{
			Title:       "Storybooks Reading API",
			Description: "Reading sessions, progress tracking and book content",
			Version:     version,
		},
		Paths: make(map[string]PathItem),
	}

	tags := make(map[string]bool)
	for _, route := range routes {
		d, ok := described[Key(route.Method, route.Path)]
		if !ok {
			continue
		}

		path, params := convertPath(route.Path)
		tag := tagFor(route.Path)
		tags[tag] = true

		op := &Operation{
			Summary:     d.Summary,
			Tags:        []string{tag},
			OperationID: operationID(route.Method, route.Path),
			Parameters:  params,
			Responses: map[string]Response{
				"200": {Description: "Success"},
				"400": {Description: "Bad Request"},
				"404": {Description: "Not Found"},
				"500": {Description: "Internal Server Error"},
			},
		}
		if !d.Public {
			op.Security = []map[string][]any{{"bearerAuth": {}}}
			op.Responses["401"] = Response{Description: "Unauthorized"}
		}

		item := spec.Paths[path]
		switch route.Method {
		case "GET":
			item.Get = op
		case "POST":
			item.Post = op
		case "PUT":
			item.Put = op
		case "DELETE":
			item.Delete = op
		}
		spec.Paths[path] = item
	}

	for name := range tags {
		spec.Tags = append(spec.Tags, Tag{Name: name})
	}
	sort.Slice(spec.Tags, func(i, j int) bool { return spec.Tags[i].Name < spec.Tags[j].Name })
	return spec
}

// Key identifies a route in the described map.
func Key(method, path string) string {
	return method + " " + path
}

// convertPath rewrites gin's :param segments into OpenAPI {param} form.
func convertPath(path string) (string, []Parameter) {
	segments := strings.Split(path, "/")
	var params []Parameter
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			segments[i] = "{" + name + "}"
			params = append(params, Parameter{Name: name, In: "path", Required: true, Schema: Schema{Type: "integer"}})
		}
	}
	return strings.Join(segments, "/"), params
}

func tagFor(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

// operationID converts method and path to camelCase, e.g. getBooksBookId.
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	capitalizeNext := true
	for _, char := range strings.TrimPrefix(path, "/api") {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9'):
			if capitalizeNext && char >= 'a' && char <= 'z' {
				char -= 32
			}
			b.WriteRune(char)
			capitalizeNext = false
		default:
			capitalizeNext = true
		}
	}
	return b.String()
}
