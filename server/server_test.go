package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elisemercury/pmcalc"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLedger = pmcalc.NewLedger("EUR",
	pmcalc.LedgerEntry{Name: "1oz Gold Kangaroo", URL: "https://example.com/gold.html", Quantity: 13},
	pmcalc.LedgerEntry{Name: "1oz Silver Kangaroo", URL: "https://example.com/silver.html", Quantity: 655},
)

// switchSource serves fixed prices until broken is set.
type switchSource struct {
	broken error
}

func (s *switchSource) FetchPrice(ctx context.Context, url string) (decimal.Decimal, error) {
	if s.broken != nil && url == "https://example.com/silver.html" {
		return decimal.Zero, s.broken
	}
	if url == "https://example.com/gold.html" {
		return decimal.RequireFromString("2182.70"), nil
	}
	return decimal.RequireFromString("31.45"), nil
}

func do(t *testing.T, h http.Handler, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func total(body map[string]any) string {
	v, _ := body["valuation"].(map[string]any)
	t, _ := v["total"].(map[string]any)
	amount, _ := t["amount"].(float64)
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func TestValuationLifecycle(t *testing.T) {
	src := &switchSource{}
	srv := New(pmcalc.NewEngine(testLedger, src), testLedger, nil)
	h := srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/valuation")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NO_VALUATION", errorCode(body))

	code, body = do(t, h, http.MethodPost, "/api/valuation")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "48974.85", total(body))

	code, body = do(t, h, http.MethodGet, "/api/valuation")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "48974.85", total(body))
	assert.NotContains(t, body, "last_error")

	// a failed refresh reports the entry and keeps the held snapshot.
	src.broken = &pmcalc.NetworkError{URL: "https://example.com/silver.html", StatusCode: http.StatusNotFound}
	code, body = do(t, h, http.MethodPost, "/api/valuation")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "EVALUATION_FAILED", errorCode(body))
	entry := body["error"].(map[string]any)["entry"].(map[string]any)
	assert.Equal(t, "1oz Silver Kangaroo", entry["name"])

	code, body = do(t, h, http.MethodGet, "/api/valuation")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "48974.85", total(body))
	assert.Contains(t, body["last_error"], "status 404")
	assert.Contains(t, body, "last_attempt")
}

func TestGetValuationReportsFailureBeforeAnySuccess(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context) (*pmcalc.Snapshot, error) {
		return nil, errors.New("offline")
	})
	srv := New(eval, testLedger, nil)
	_, err := srv.Refresh(context.Background())
	require.Error(t, err)

	code, body := do(t, srv.Handler(), http.MethodGet, "/api/valuation")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "offline", body["last_error"])
}

func TestGetLedger(t *testing.T) {
	srv := New(pmcalc.NewEngine(testLedger, &switchSource{}), testLedger, nil)
	code, body := do(t, srv.Handler(), http.MethodGet, "/api/ledger")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "EUR", body["currency"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.com/gold.html", entries[0].(map[string]any)["url"])
	assert.EqualValues(t, 655, entries[1].(map[string]any)["quantity"])
}

func TestHealth(t *testing.T) {
	srv := New(pmcalc.NewEngine(testLedger, &switchSource{}), testLedger, nil)
	code, body := do(t, srv.Handler(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestPanicIsJSON(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context) (*pmcalc.Snapshot, error) {
		panic("boom")
	})
	srv := New(eval, testLedger, nil)
	code, body := do(t, srv.Handler(), http.MethodPost, "/api/valuation")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
}

func TestHolderKeepsLatestSuccess(t *testing.T) {
	var h Holder
	snap, err := h.Latest()
	assert.Nil(t, snap)
	assert.NoError(t, err)

	s, err := pmcalc.NewEngine(testLedger, &switchSource{}).Evaluate(context.Background())
	require.NoError(t, err)
	h.Store(s)

	failedAt := s.EvaluatedAt().Add(time.Minute)
	h.Fail(errors.New("timeout"), failedAt)
	got, err := h.Latest()
	assert.Same(t, s, got)
	assert.EqualError(t, err, "timeout")
	assert.Equal(t, failedAt, h.LastAttempt())
}

type evaluatorFunc func(ctx context.Context) (*pmcalc.Snapshot, error)

func (f evaluatorFunc) Evaluate(ctx context.Context) (*pmcalc.Snapshot, error) { return f(ctx) }
