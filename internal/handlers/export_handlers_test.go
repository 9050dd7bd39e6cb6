package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubExporter struct {
	payload string
	err     error
}

func (s stubExporter) ExportCSV(_ context.Context, w io.Writer) error {
	if _, err := io.WriteString(w, s.payload); err != nil {
		return err
	}
	return s.err
}

func exportRequest(t *testing.T, exporter csvExporter) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := &ExportHandler{exportSvc: exporter}
	router.GET("/export", h.Export)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestExportServesCSVAttachment(t *testing.T) {
	payload := "Company Name,Company Code\nAcme,ACME\n"
	w := exportRequest(t, stubExporter{payload: payload})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "fundsheet-export.csv")
	assert.Equal(t, payload, w.Body.String())
}

func TestExportFailureReturnsCleanJSONError(t *testing.T) {
	// The exporter wrote half a sheet before failing; none of it may reach
	// the client.
	w := exportRequest(t, stubExporter{payload: "Company Name,Company Code\n", err: errors.New("query failed")})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.False(t, strings.Contains(w.Body.String(), "Company Name"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
