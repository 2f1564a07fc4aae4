package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

func testTables(sport models.Sport) repository.Tables {
	return repository.Tables{
		Games:       string(sport) + "_games",
		Predictions: string(sport) + "_latest_predictions",
		Accuracy:    string(sport) + "_edge_accuracy_buckets",
	}
}

func testHTTPConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.Burst = 100
	cfg.Timeout = 2 * time.Second
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "secret-key", NewRateLimitedHTTPClient(testHTTPConfig(), nil), testTables, nil, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	httpClient := NewRateLimitedHTTPClient(testHTTPConfig(), nil)

	_, err := NewClient("", "", httpClient, testTables, nil)
	assert.Error(t, err)

	_, err = NewClient("http://localhost", "", nil, testTables, nil)
	assert.Error(t, err)

	_, err = NewClient("http://localhost", "", httpClient, nil, nil)
	assert.Error(t, err)
}

func TestGetByDate(t *testing.T) {
	var gotQuery map[string][]string
	var gotPath, gotKey, gotAuth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[
			{"game_id": "g1", "game_date": "2024-01-05", "home_team": "BOS", "away_team": "NYK", "vegas_home_spread": -3.5},
			{"game_id": "g2", "game_date": "2024-01-05T19:00:00", "fair_home_spread": -2},
			{"game_date": "2024-01-05"},
			{"game_id": "g3", "game_date": "2024-01-06"}
		]`)
	})

	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	games, err := client.GetByDate(context.Background(), models.SportNBA, date)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/nba_games", gotPath)
	assert.Equal(t, []string{"gte.2024-01-05", "lt.2024-01-06"}, gotQuery["game_date"])
	assert.Equal(t, []string{"*"}, gotQuery["select"])
	assert.Equal(t, []string{"game_id.asc"}, gotQuery["order"])
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "Bearer secret-key", gotAuth)

	require.Len(t, games, 2)
	assert.Equal(t, "g1", games[0].ID)
	require.NotNil(t, games[0].VegasHomeSpread)
	assert.Equal(t, -3.5, *games[0].VegasHomeSpread)
	assert.Equal(t, "g2", games[1].ID)
}

func TestGetLatestRun(t *testing.T) {
	var queries []url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, q)
		assert.Equal(t, "/rest/v1/nba_latest_predictions", r.URL.Path)

		if q.Get("limit") == "1" {
			fmt.Fprint(w, `[{"game_id": "b", "run_id": "r2", "created_at": "2024-01-05T10:00:00Z", "fair_home_spread": 2}]`)
			return
		}
		assert.Equal(t, "eq.r2", q.Get("run_id"))
		fmt.Fprint(w, `[
			{"game_id": "a", "run_id": "r2", "created_at": "2024-01-05T10:00:00Z", "fair_home_spread": 3},
			{"game_id": "b", "run_id": "r2", "created_at": "2024-01-05T10:00:00Z", "fair_home_spread": 2}
		]`)
	})

	run, err := client.GetLatestRun(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Equal(t, "r2", run.RunID)
	require.Len(t, run.Predictions, 2)
	assert.Equal(t, "a", run.Predictions[0].GameID)
	assert.Equal(t, "b", run.Predictions[1].GameID)

	require.Len(t, queries, 2)
	assert.Equal(t, "created_at.desc.nullslast,run_id.desc.nullslast", queries[0].Get("order"))
	assert.Empty(t, queries[0].Get("offset"))
	assert.Equal(t, "game_id.asc", queries[1].Get("order"))
	assert.Equal(t, "0", queries[1].Get("offset"))
}

func TestGetLatestRunWithoutRunID(t *testing.T) {
	var runFilter string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			runFilter = r.URL.Query().Get("run_id")
		}
		fmt.Fprint(w, `[{"game_id": "a", "fair_home_spread": 3}]`)
	})

	run, err := client.GetLatestRun(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Equal(t, "is.null", runFilter)
	require.Len(t, run.Predictions, 1)
}

func TestGetLatestRunFallsBackWhenRunColumnsMissing(t *testing.T) {
	var orders []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		orders = append(orders, q.Get("order"))
		if q.Get("limit") == "1" {
			http.Error(w, `{"message":"column created_at does not exist"}`, http.StatusBadRequest)
			return
		}
		assert.Empty(t, q.Get("run_id"))
		fmt.Fprint(w, `[{"game_id": "a", "fair_home_spread": 3}, {"game_id": "b", "fair_home_spread": 1}]`)
	})

	run, err := client.GetLatestRun(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Len(t, run.Predictions, 2)
	assert.Equal(t, []string{"created_at.desc.nullslast,run_id.desc.nullslast", "game_id.asc"}, orders)
}

func TestGetLatestRunEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	_, err := client.GetLatestRun(context.Background(), models.SportNBA)
	assert.ErrorIs(t, err, models.ErrNoPredictions)
}

func TestGetBucketRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/nba_edge_accuracy_buckets", r.URL.Path)
		fmt.Fprint(w, `[
			{"edge_type": "SPREAD", "bucket": 1.5, "games": 40, "correct": 25, "accuracy_pct": 62.5},
			{"edge_type": "OU", "bucket": null, "games": 10, "correct": 5, "accuracy_pct": 50},
			{"edge_type": null, "bucket": 2.5},
			{"edge_type": "ML", "bucket": 0.6}
		]`)
	})

	rows, err := client.GetBucketRows(context.Background(), models.SportNBA)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AccuracyBucketRow{EdgeType: "SPREAD", Bucket: 1.5, Games: 40, Correct: 25, AccuracyPct: 62.5}, rows[0])
	assert.Equal(t, models.AccuracyBucketRow{EdgeType: "ML", Bucket: 0.6, Incomplete: true}, rows[1])
}

func TestGetBucketRowsNullAccuracyIsNotAStat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"edge_type": "SPREAD_EDGE", "bucket": 1.5, "games": 12, "correct": 7, "accuracy_pct": null},
			{"edge_type": "SPREAD_EDGE", "bucket": 2.0, "games": 20, "correct": 11, "accuracy_pct": 55}
		]`)
	})

	rows, err := client.GetBucketRows(context.Background(), models.SportNBA)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Incomplete)
	assert.Zero(t, rows[0].Games)

	idx := edge.BuildIndex(rows)
	assert.Equal(t, 1, idx.Stats().InvalidBuckets)

	missing := edge.NewBucketKey(1.5)
	assert.Nil(t, idx.Lookup(edge.SpreadEdge, &missing))

	present := edge.NewBucketKey(2.0)
	stat := idx.Lookup(edge.SpreadEdge, &present)
	require.NotNil(t, stat)
	assert.Equal(t, 55.0, stat.AccuracyPct)
}

func TestPagination(t *testing.T) {
	var offsets []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "edge_type.asc,bucket.asc", r.URL.Query().Get("order"))

		switch offset {
		case "0":
			fmt.Fprint(w, `[{"edge_type": "SPREAD", "bucket": 0.5}, {"edge_type": "SPREAD", "bucket": 1.0}]`)
		case "2":
			fmt.Fprint(w, `[{"edge_type": "SPREAD", "bucket": 1.5}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}, WithPageSize(2))

	rows, err := client.GetBucketRows(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, []string{"0", "2"}, offsets)
}

func TestUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"relation does not exist"}`, http.StatusNotFound)
	})

	_, err := client.GetBucketRows(context.Background(), models.SportNBA)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestUnknownSport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.GetByDate(context.Background(), models.Sport("curling"), time.Now())
	assert.ErrorIs(t, err, models.ErrUnknownSport)
}

func TestRepositoriesBundle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	repos := client.Repositories()
	assert.Same(t, client, repos.Games)
	assert.Same(t, client, repos.Predictions)
	assert.Same(t, client, repos.Accuracy)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxRetries = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond

	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	resp, err := httpClient.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCircuitBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("X-Healthy") == "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.CircuitBreakerMax = 2
	cfg.BreakerCooldown = time.Minute

	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	httpClient.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		resp, err := httpClient.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.True(t, httpClient.IsOpen())

	_, err := httpClient.Get(context.Background(), server.URL, nil)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// after the cooldown a trial request goes through and closes the breaker on success
	now = now.Add(2 * time.Minute)
	healthy := http.Header{}
	healthy.Set("X-Healthy", "1")
	resp, err := httpClient.Get(context.Background(), server.URL, healthy)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, httpClient.IsOpen())
}

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.CircuitBreakerMax = 3
	cfg.BreakerCooldown = time.Minute

	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	httpClient.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		resp, err := httpClient.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.True(t, httpClient.IsOpen())

	now = now.Add(2 * time.Minute)
	resp, err := httpClient.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, httpClient.IsOpen())
}

func TestCustomRetryPolicy(t *testing.T) {
	policy := customRetryPolicy()

	tests := []struct {
		status int
		retry  bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			retry, err := policy(context.Background(), &http.Response{StatusCode: tt.status}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.retry, retry)
		})
	}

	retry, err := policy(context.Background(), nil, errors.New("connection reset"))
	require.NoError(t, err)
	assert.True(t, retry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	retry, err = policy(ctx, nil, errors.New("connection reset"))
	assert.False(t, retry)
	assert.Error(t, err)
}
