package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		wantID     string
		wantToken  string
		wantExpiry time.Time
	}{
		{
			name:       "flat document with numeric expiry",
			body:       `{"tmpSecretId":"id1","tmpSecretKey":"key1","sessionToken":"tok1","expiredTime":1767225600}`,
			wantID:     "id1",
			wantToken:  "tok1",
			wantExpiry: expiry,
		},
		{
			name:       "nested credentials with string expiry",
			body:       `{"credentials":{"tmpSecretId":"id2","tmpSecretKey":"key2","sessionToken":"tok2"},"expiredTime":"1767225600"}`,
			wantID:     "id2",
			wantToken:  "tok2",
			wantExpiry: expiry,
		},
		{
			name:       "rfc3339 expiry",
			body:       `{"tmpSecretId":"id3","tmpSecretKey":"key3","expiredTime":"2026-01-01T00:00:00Z"}`,
			wantID:     "id3",
			wantExpiry: expiry,
		},
		{
			name:   "no expiry",
			body:   `{"tmpSecretId":"id4","tmpSecretKey":"key4"}`,
			wantID: "id4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, http.StatusOK, tt.body)

			f, err := NewFetcher(srv.URL)
			require.NoError(t, err)

			cred, err := f.Fetch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, cred.TmpSecretID)
			assert.Equal(t, tt.wantToken, cred.SessionToken)
			assert.True(t, tt.wantExpiry.Equal(cred.ExpiredTime), "expiry %v", cred.ExpiredTime)
		})
	}
}

func TestFetch_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", `{"tmpSecretId":"id"}`},
		{"bad expiry", `{"tmpSecretId":"id","tmpSecretKey":"k","expiredTime":"tomorrow"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, http.StatusOK, tt.body)
			f, err := NewFetcher(srv.URL)
			require.NoError(t, err)

			_, err = f.Fetch(context.Background())
			assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		})
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := serveJSON(t, http.StatusForbidden, `{"error":"denied"}`)
	f, err := NewFetcher(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)

	var terr *errors.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "sessionCredential", terr.Op)
}
