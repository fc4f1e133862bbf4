package docs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(c *gin.Context) {}

func TestGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/books/:bookId", noop)
	r.POST("/api/reading-sessions/end-beacon", noop)
	r.GET("/api/undocumented", noop)

	spec := Generate(r.Routes(), map[string]Route{
		Key("GET", "/api/books/:bookId"):                 {Summary: "Get a book"},
		Key("POST", "/api/reading-sessions/end-beacon"): {Summary: "Beacon", Public: true},
	}, "1.2.3")

	assert.Equal(t, "1.2.3", spec.Info.Version)
	require.Len(t, spec.Paths, 2)

	book := spec.Paths["/api/books/{bookId}"].Get
	require.NotNil(t, book)
	assert.Equal(t, "getBooksBookId", book.OperationID)
	assert.Equal(t, []string{"books"}, book.Tags)
	require.Len(t, book.Parameters, 1)
	assert.Equal(t, "bookId", book.Parameters[0].Name)
	assert.NotEmpty(t, book.Security)
	assert.Contains(t, book.Responses, "401")

	beacon := spec.Paths["/api/reading-sessions/end-beacon"].Post
	require.NotNil(t, beacon)
	assert.Empty(t, beacon.Security)
	assert.NotContains(t, beacon.Responses, "401")

	assert.Equal(t, []Tag{{Name: "books"}, {Name: "reading-sessions"}}, spec.Tags)
}

func TestDocumentationHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewDocumentationHandler(r, map[string]Route{Key("GET", "/api/books"): {Summary: "List books"}}, "dev").RegisterRoutes()
	r.GET("/api/books", noop)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var spec OpenAPISpec
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.0", spec.OpenAPI)
	require.Contains(t, spec.Paths, "/api/books")
	assert.Equal(t, "List books", spec.Paths["/api/books"].Get.Summary)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/swagger", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}
