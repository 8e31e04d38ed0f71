package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopadmin/config"
	"shopadmin/dbtest"
	"shopadmin/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	SetupRoutes(mux, dbtest.Open(t))
	return NewHandler(zap.NewNop(), mux)
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	w := serve(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	HealthHandler(func() error { return errors.New("closed") })(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestLogger_RequestID(t *testing.T) {
	h := newTestServer(t)

	w := serve(h, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestNewHandler_RecoversPanic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	w := serve(NewHandler(zap.NewNop(), mux), http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTaxHandlers(t *testing.T) {
	h := newTestServer(t)

	body, _ := json.Marshal([]model.Tax{
		{Name: "GST", Rate: decimal.NewFromInt(5), Priority: 1, IsActive: true},
		{Name: "PST", Rate: decimal.NewFromInt(7), Priority: 2, IsCompound: true, IsActive: true},
	})
	w := serve(h, http.MethodPost, "/api/taxes/save", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body, _ = json.Marshal([]model.Tax{{Name: "GST", Rate: decimal.NewFromInt(6), Priority: 1, IsActive: true}})
	w = serve(h, http.MethodPost, "/api/taxes/save", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodGet, "/api/taxes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var taxes []model.Tax
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &taxes))
	require.Len(t, taxes, 2)
	assert.Equal(t, "GST", taxes[0].Name)
	assert.True(t, decimal.NewFromInt(6).Equal(taxes[0].Rate))
	assert.True(t, taxes[1].IsCompound)

	body, _ = json.Marshal([]model.Tax{{Name: " ", Rate: decimal.NewFromInt(1)}})
	w = serve(h, http.MethodPost, "/api/taxes/save", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodGet, "/api/taxes/save", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestDriverHandlers(t *testing.T) {
	h := newTestServer(t)

	w := serve(h, http.MethodPost, "/api/drivers/create", []byte(`{"name":"Aiko","phone":"090"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var d model.Driver
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.NotZero(t, d.ID)
	assert.True(t, d.IsActive)

	w = serve(h, http.MethodPost, "/api/drivers/create", []byte(`{"name":"Ren","isActive":false}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(h, http.MethodPost, "/api/drivers/create", []byte(`{"name":""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodGet, "/api/drivers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var drivers []model.Driver
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drivers))
	require.Len(t, drivers, 2)
	assert.False(t, drivers[1].IsActive)
}

func TestConfigHandler(t *testing.T) {
	h := newTestServer(t)
	w := serve(h, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got config.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, config.GetConfig(), got)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
