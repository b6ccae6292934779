package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/sheet"
	"github.com/orcafacil/orcafacil/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const sheetBody = "Celular;Troca de tela;Original;;450;520;3;Cartao de Credito;3;15;sim;não\n" +
	";Sem aparelho;;;100;100;1;PIX;1;30;não;não\n"

func newTestServer(t *testing.T, st store.Inserter) *Server {
	t.Helper()
	return New(Config{
		Options: pipeline.DefaultOptions(),
		Store:   st,
		Log:     zerolog.Nop(),
	})
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestValidate(t *testing.T) {
	s := newTestServer(t, nil)
	body := budgetcsv.HeaderLine() + "\n" + sheetBody
	w, env := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/validate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)

	var report model.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.ValidRows)
	assert.Equal(t, 1, report.InvalidRows)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "Cartão de Crédito", report.Records[0].PaymentMethod)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Validations.WithLabelValues("errors")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Findings.WithLabelValues("error", model.KindRequired)))
}

func TestValidateMultipart(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "orcamentos.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(budgetcsv.HeaderLine() + "\n" + sheetBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/budgets/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := do(t, s, req)

	require.Equal(t, http.StatusOK, w.Code)
	var report model.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.TotalRows)
}

func TestValidateStrictness(t *testing.T) {
	s := newTestServer(t, nil)
	body := budgetcsv.HeaderLine() + "\n" + sheetBody

	w, env := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/validate?strictness=strict", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	var report model.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Records, 1)
	assert.Equal(t, "Cartao de Credito", report.Records[0].PaymentMethod)

	w, env = do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/validate?strictness=max", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
}

func TestValidateRejectedSheet(t *testing.T) {
	s := newTestServer(t, nil)
	w, env := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/validate", strings.NewReader("")))

	require.Equal(t, http.StatusOK, w.Code)
	var report model.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, model.KindEmptyInput, report.Findings[0].Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Validations.WithLabelValues("rejected")))
}

func TestImport(t *testing.T) {
	mem := &store.Memory{}
	s := newTestServer(t, mem)
	body := budgetcsv.HeaderLine() + "\n" + sheetBody

	w, env := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/import", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var res ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Stored)
	assert.Len(t, mem.Records(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Stored))
}

type brokenStore struct{}

func (brokenStore) InsertMany(context.Context, []model.BudgetRecord) (int, error) {
	return 0, errors.New("connection refused")
}

func TestImportStoreErrors(t *testing.T) {
	body := budgetcsv.HeaderLine() + "\n" + sheetBody

	w, _ := do(t, newTestServer(t, nil), httptest.NewRequest(http.MethodPost, "/v1/budgets/import", strings.NewReader(body)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, env := do(t, newTestServer(t, brokenStore{}), httptest.NewRequest(http.MethodPost, "/v1/budgets/import", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, []string{"connection refused"}, env.Errors)
}

func exportBody(t *testing.T) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(ExportRequest{Records: []model.BudgetRecord{{
		DeviceType:         "Celular",
		ServiceDescription: "Troca de tela",
		CashPrice:          45000,
		InstallmentPrice:   52000,
		InstallmentCount:   3,
		PaymentMethod:      "Cartão de Crédito",
		WarrantyMonths:     3,
		ValidityDays:       15,
		IncludesDelivery:   true,
	}}})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, nil)
	w, _ := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/export", exportBody(t)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t,
		budgetcsv.HeaderLine()+"\nCelular;Troca de tela;;;450;520;3;Cartão de Crédito;3;15;sim;não\n",
		w.Body.String())
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t, nil)
	w, _ := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/export?format=xlsx", exportBody(t)))
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheet.BudgetsSheet}, f.GetSheetList())
}

func TestExportBadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/export", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/export?format=pdf", exportBody(t)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Config{Options: pipeline.DefaultOptions(), Log: zerolog.Nop(), Registry: prometheus.NewRegistry()})
	body := budgetcsv.HeaderLine() + "\n" + sheetBody
	do(t, s, httptest.NewRequest(http.MethodPost, "/v1/budgets/validate", strings.NewReader(body)))

	w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `orcafacil_validations_total{outcome="errors"} 1`)
	assert.Contains(t, w.Body.String(), "orcafacil_validation_duration_seconds_count 1")
}
