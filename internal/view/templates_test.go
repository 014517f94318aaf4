package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	_, err := NewEngine()
	require.NoError(t, err)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	data := struct {
		Form   struct{ Email string }
		Errors map[string]string
	}{}

	w := httptest.NewRecorder()
	err = engine.Render(w, "pages/login.html", TemplateData{Title: "Sign in", CSRFToken: "tok", Data: data})
	require.NoError(t, err)
	require.Contains(t, w.Body.String(), `value="tok"`)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.Error(t, engine.Render(w, "pages/nope.html", TemplateData{}))
}
