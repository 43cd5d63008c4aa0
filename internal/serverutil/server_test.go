package serverutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/logger"
)

type createReq struct {
	Name string `json:"name"`
}

func (r createReq) Validate() error {
	if r.Name == "" {
		return newserrs.E(newserrs.KindInvalid, "request was invalid", newserrs.Detail{Field: "name", Error: "name is required"})
	}
	return nil
}

func TestDecodeValid(t *testing.T) {
	v, err := DecodeValid[createReq](strings.NewReader(`{"name": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", v.Name)

	_, err = DecodeValid[createReq](strings.NewReader(`{"name": ""}`))
	require.Error(t, err)
	assert.True(t, newserrs.Is(err, newserrs.KindInvalid))

	_, err = DecodeValid[createReq](strings.NewReader(`{not json`))
	require.Error(t, err)
	assert.True(t, newserrs.Is(err, newserrs.KindInvalid))
}

func TestHandlerFuncE_StructuredError(t *testing.T) {
	h := HandlerFuncE(func(w http.ResponseWriter, r *http.Request) error {
		return newserrs.E(newserrs.KindNotFound, "feed not found")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "feed not found", body["message"])
	assert.Equal(t, "not_found", body["kind"])
}

func TestHandlerFuncE_HidesInternalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{name: "plain error", err: errors.New("secret path /var/db"), kind: "internal"},
		{name: "storage error", err: newserrs.E(newserrs.KindStorage, "secret path /var/db"), kind: "storage_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HandlerFuncE(func(w http.ResponseWriter, r *http.Request) error { return tt.err })

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "secret")
			assert.Contains(t, rec.Body.String(), tt.kind)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(logger.New(&buf, "json", "info"))
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	h := RequestIDMiddleware(AccessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status_code":418`)

	// A fresh id is minted when none is sent.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}
