package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"socmint/internal/aggregator"
	"socmint/internal/components/telemetry/telemetrytest"
	"socmint/internal/profile"

	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	lastIdentifier string
	lastOpts       aggregator.Options
	err            error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, identifier string, opts aggregator.Options) (profile.Record, error) {
	f.lastIdentifier = identifier
	f.lastOpts = opts
	if f.err != nil {
		return profile.Record{}, f.err
	}
	rec := profile.New("999")
	rec.Alias = identifier
	return rec, nil
}

func get(t *testing.T, agg *fakeAggregator, path string) (int, []byte) {
	srv := httptest.NewServer(NewServer(agg, &telemetrytest.Recorder{}).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func TestGetProfile(t *testing.T) {
	agg := &fakeAggregator{}
	status, body := get(t, agg, "/v1/profiles/someUser?limit=5")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "someUser", agg.lastIdentifier)
	require.Equal(t, aggregator.Options{Limit: 5, UseCache: true}, agg.lastOpts)

	var rec profile.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	require.Equal(t, "999", rec.AccountID)
	require.Equal(t, "someUser", rec.Alias)
}

func TestGetProfileBypassCache(t *testing.T) {
	agg := &fakeAggregator{}
	status, _ := get(t, agg, "/v1/profiles/123?cache=false")
	require.Equal(t, http.StatusOK, status)
	require.False(t, agg.lastOpts.UseCache)
	require.Zero(t, agg.lastOpts.Limit)
}

func TestGetProfileErrors(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		path         string
		expectStatus int
		expectBody   string
	}{
		{
			name:         "user not found",
			err:          aggregator.ErrUserNotFound,
			path:         "/v1/profiles/nobody",
			expectStatus: http.StatusNotFound,
			expectBody:   `{"error": "User not found"}`,
		},
		{
			name:         "profile fetch",
			err:          fmt.Errorf("%w: status 404", aggregator.ErrProfileFetch),
			path:         "/v1/profiles/123",
			expectStatus: http.StatusBadGateway,
			expectBody:   `{"error": "Failed to fetch profile"}`,
		},
		{
			name:         "unexpected",
			err:          errors.New("boom"),
			path:         "/v1/profiles/123",
			expectStatus: http.StatusInternalServerError,
			expectBody:   `{"error": "boom"}`,
		},
		{
			name:         "bad limit",
			path:         "/v1/profiles/123?limit=ten",
			expectStatus: http.StatusBadRequest,
			expectBody:   `{"error": "invalid limit"}`,
		},
		{
			name:         "bad cache flag",
			path:         "/v1/profiles/123?cache=maybe",
			expectStatus: http.StatusBadRequest,
			expectBody:   `{"error": "invalid cache flag"}`,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			status, body := get(t, &fakeAggregator{err: test.err}, test.path)
			require.Equal(t, test.expectStatus, status)
			require.JSONEq(t, test.expectBody, string(body))
		})
	}
}

func TestHealthz(t *testing.T) {
	status, body := get(t, &fakeAggregator{}, "/healthz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", string(body))

	status, _ = get(t, &fakeAggregator{}, "/v1/unknown")
	require.Equal(t, http.StatusNotFound, status)
}
