package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/billing"
	"github.com/garyjia/gst-billing/internal/config"
	"github.com/garyjia/gst-billing/internal/container"
	"github.com/garyjia/gst-billing/internal/service"
	"github.com/garyjia/gst-billing/internal/storage"
)

const templateName = "Tax Invoice.xlsx"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router    *gin.Engine
	outputDir string
	container *container.Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	root := t.TempDir()
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080},
		Database: config.DatabaseConfig{Path: filepath.Join("data", "billing.db")},
		Billing:  config.BillingConfig{RootDir: root, TemplatesDir: "Templates", OutputDir: "GeneratedBills"},
		Logger:   config.LoggerConfig{Format: "json"},
	}
	require.NoError(t, os.MkdirAll(cfg.TemplatesPath(), 0755))

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "TAX INVOICE"))
	require.NoError(t, f.SaveAs(filepath.Join(cfg.TemplatesPath(), templateName)))
	require.NoError(t, f.Close())

	clock := func() time.Time { return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC) }
	c, err := container.NewContainer(cfg, logger, billing.WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Close() })

	server := NewServer(DefaultServerConfig(), c.BillService(), c.Registry(), c, logger)
	return &testEnv{router: server.Router(), outputDir: cfg.OutputPath(), container: c}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()

	resp := Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func validFields() map[string]string {
	return map[string]string{
		billing.FieldInvoiceNumber:      "117",
		billing.FieldInvoiceDate:        "2026-03-14",
		billing.FieldDescriptionOfGoods: "Glass wool insulation rolls",
		billing.FieldHSNCode:            "7019",
		billing.FieldQuantity:           "120 Nos",
		billing.FieldTotalAmount:        "54660",
		billing.FieldCGST:               "9",
		billing.FieldSGST:               "9",
		billing.FieldRoundOff:           "64498.80",
		billing.FieldDeclaration:        "We declare that this invoice shows the actual price of the goods described.",
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var health HealthResponse
	resp := decode(t, w, &health)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Components["database"].Healthy)
	assert.True(t, health.Components["templates"].Healthy)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.container.Close())

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health HealthResponse
	resp := decode(t, w, &health)
	assert.False(t, resp.Success)
	assert.Equal(t, "unhealthy", health.Status)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestListTemplates(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	decode(t, w, &names)
	assert.Equal(t, []string{templateName}, names)
}

func TestGenerateBill(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/bills", service.GenerateRequest{
		TemplateName: templateName,
		Fields:       validFields(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result service.GenerateResult
	resp := decode(t, w, &result)
	assert.True(t, resp.Success)
	assert.Equal(t, "Bill-117-2026-03-15.xlsx", result.FileName)
	assert.NotEmpty(t, result.LedgerID)
	assert.FileExists(t, filepath.Join(env.outputDir, result.FileName))

	t.Run("listed", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/bills", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var bills []storage.BillFile
		decode(t, w, &bills)
		require.Len(t, bills, 1)
		assert.Equal(t, result.FileName, bills[0].FileName)
	})

	t.Run("downloadable", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/bills/"+result.FileName, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), result.FileName)
		assert.Greater(t, w.Body.Len(), 0)
	})

	t.Run("in history", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/history?limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var history []map[string]interface{}
		decode(t, w, &history)
		require.Len(t, history, 1)
		assert.Equal(t, "117", history[0]["invoice_number"])
		assert.Equal(t, result.LedgerID, history[0]["id"])
	})

	t.Run("by invoice", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/history?invoice=117", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var history []map[string]interface{}
		decode(t, w, &history)
		require.Len(t, history, 1)

		w = env.do(t, http.MethodGet, "/api/history?invoice=999", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &history)
		assert.Empty(t, history)
	})

	t.Run("counted", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "billing_bills_generated_total 1")
	})
}

func TestGenerateBill_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed body",
			body:       []string{"not", "an", "object"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name: "missing required fields",
			body: service.GenerateRequest{
				TemplateName: templateName,
				Fields:       map[string]string{billing.FieldInvoiceNumber: "117"},
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "required fields are empty",
		},
		{
			name: "bad date",
			body: service.GenerateRequest{
				TemplateName: templateName,
				Fields: func() map[string]string {
					m := validFields()
					m[billing.FieldInvoiceDate] = "15-03-2026"
					return m
				}(),
			},
			wantStatus: http.StatusBadRequest,
			wantError:  billing.ErrDateParse.Error(),
		},
		{
			name:       "unknown template",
			body:       service.GenerateRequest{TemplateName: "Credit Note.xlsx", Fields: validFields()},
			wantStatus: http.StatusNotFound,
			wantError:  billing.ErrTemplateNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(t, http.MethodPost, "/api/bills", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.wantError)
			assert.NoDirExists(t, env.outputDir)
		})
	}
}

func TestDownloadBill_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/bills/Bill-999-2026-03-15.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/bills/notes.txt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAmountInWords(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/words?amount=0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var words WordsResponse
	decode(t, w, &words)
	assert.Equal(t, "Zero Rupees Only", words.Words)

	w = env.do(t, http.MethodGet, "/api/words?amount=twelve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeTotals(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/totals", map[string]string{
		billing.FieldTotalAmount: "100000",
		billing.FieldCGST:        "9",
		billing.FieldSGST:        "9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var totals TotalsResponse
	decode(t, w, &totals)
	assert.Equal(t, "₹1,18,000.00", totals.Display.GrandTotal)
	assert.Equal(t, "₹9,000.00", totals.Display.CGST)
	assert.True(t, strings.HasPrefix(totals.Display.IGST, "₹0"))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/api/bills", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
