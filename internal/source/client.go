// Package source reads sport rows from a PostgREST-compatible backend.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

// ErrUnexpectedStatus is returned when the backend answers with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected backend status")

// DefaultPageSize is the number of rows requested per page
const DefaultPageSize = 1000

// Client implements the repository interfaces over a REST backend
type Client struct {
	baseURL  string
	apiKey   string
	http     *RateLimitedHTTPClient
	tables   repository.TableResolver
	logger   *logger.SourceLogger
	pageSize int
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithPageSize overrides the page size
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a backend client
func NewClient(baseURL, apiKey string, httpClient *RateLimitedHTTPClient, tables repository.TableResolver, log *logger.SourceLogger, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if tables == nil {
		return nil, fmt.Errorf("table resolver is required")
	}
	if log == nil {
		log = logger.NewSourceLogger(logger.Discard())
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     httpClient,
		tables:   tables,
		logger:   log,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Repositories exposes the client through the repository bundle
func (c *Client) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Games:       c,
		Predictions: c,
		Accuracy:    c,
	}
}

// GetByDate retrieves the games scheduled on a day
func (c *Client) GetByDate(ctx context.Context, sport models.Sport, date time.Time) ([]*models.Game, error) {
	adapter, err := edge.AdapterFor(sport)
	if err != nil {
		return nil, err
	}

	day := date.Format(models.DateLayout)
	next := date.AddDate(0, 0, 1).Format(models.DateLayout)
	column := adapter.Fields.GameDate[0]

	filter := url.Values{}
	filter.Add(column, "gte."+day)
	filter.Add(column, "lt."+next)
	filter.Set("order", adapter.Fields.ID[0]+".asc")

	raw, err := c.fetchAll(ctx, c.tables(sport).Games, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s games: %w", sport, err)
	}
	return repository.DecodeGames(adapter, raw, date)
}

// GetLatestRun retrieves the newest prediction run for a sport. The newest row is
// located by ordering on created_at then run ID, and only that run's rows are fetched.
// Backends whose predictions table lacks those columns are read whole instead.
func (c *Client) GetLatestRun(ctx context.Context, sport models.Sport) (*models.PredictionRun, error) {
	adapter, err := edge.AdapterFor(sport)
	if err != nil {
		return nil, err
	}
	table := c.tables(sport).Predictions

	raw, err := c.fetchLatestRunRows(ctx, table, adapter)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
		c.logger.WithError(err).WithField("table", table).Warn("Run columns not orderable, reading every prediction row")
		raw, err = c.fetchAll(ctx, table, url.Values{"order": {adapter.Fields.ID[0] + ".asc"}})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s predictions: %w", sport, err)
	}
	return repository.DecodeLatestRun(sport, adapter, raw)
}

func (c *Client) fetchLatestRunRows(ctx context.Context, table string, adapter edge.SportAdapter) ([]map[string]any, error) {
	runCol := adapter.Fields.RunID[0]
	createdCol := adapter.Fields.CreatedAt[0]

	newest, err := c.fetchRows(ctx, table, url.Values{
		"select": {"*"},
		"order":  {createdCol + ".desc.nullslast," + runCol + ".desc.nullslast"},
		"limit":  {"1"},
	})
	if err != nil || len(newest) == 0 {
		return newest, err
	}

	filter := url.Values{"order": {adapter.Fields.ID[0] + ".asc"}}
	if runID := adapter.RunIDOf(newest[0]); runID != "" {
		filter.Set(runCol, "eq."+runID)
	} else {
		filter.Set(runCol, "is.null")
	}
	return c.fetchAll(ctx, table, filter)
}

type bucketRow struct {
	EdgeType    *string  `json:"edge_type"`
	Bucket      *float64 `json:"bucket"`
	Games       *float64 `json:"games"`
	Correct     *float64 `json:"correct"`
	AccuracyPct *float64 `json:"accuracy_pct"`
}

// GetBucketRows retrieves every accuracy bucket row for a sport
func (c *Client) GetBucketRows(ctx context.Context, sport models.Sport) ([]models.AccuracyBucketRow, error) {
	table := c.tables(sport).Accuracy

	var out []models.AccuracyBucketRow
	order := url.Values{"order": {"edge_type.asc,bucket.asc"}}
	err := c.paginate(ctx, table, order, func(body io.Reader) (int, error) {
		var page []bucketRow
		if err := json.NewDecoder(body).Decode(&page); err != nil {
			return 0, fmt.Errorf("failed to decode accuracy buckets: %w", err)
		}
		for _, r := range page {
			if r.EdgeType == nil || r.Bucket == nil {
				continue
			}
			out = append(out, models.NewAccuracyBucketRow(*r.EdgeType, *r.Bucket, r.Games, r.Correct, r.AccuracyPct))
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s accuracy buckets: %w", sport, err)
	}
	return out, nil
}

func (c *Client) fetchAll(ctx context.Context, table string, filter url.Values) ([]map[string]any, error) {
	var out []map[string]any
	err := c.paginate(ctx, table, filter, func(body io.Reader) (int, error) {
		page, err := decodeRows(table, body)
		if err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	return out, err
}

// fetchRows issues a single request with the query as given
func (c *Client) fetchRows(ctx context.Context, table string, query url.Values) ([]map[string]any, error) {
	var out []map[string]any
	_, err := c.fetchPage(ctx, table, query, func(body io.Reader) (int, error) {
		page, err := decodeRows(table, body)
		out = page
		return len(page), err
	})
	return out, err
}

func decodeRows(table string, body io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var page []map[string]any
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return page, nil
}

// paginate requests pages until one comes back short. filter must carry an order so
// that limit/offset pages neither repeat nor skip rows.
func (c *Client) paginate(ctx context.Context, table string, filter url.Values, decode func(io.Reader) (int, error)) error {
	start := time.Now()
	total := 0

	for offset := 0; ; offset += c.pageSize {
		query := url.Values{}
		for k, vs := range filter {
			query[k] = append([]string(nil), vs...)
		}
		query.Set("select", "*")
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		n, err := c.fetchPage(ctx, table, query, decode)
		if err != nil {
			return err
		}
		total += n
		if n < c.pageSize {
			break
		}
	}

	c.logger.LogFetch(table, total, float64(time.Since(start).Milliseconds()))
	return nil
}

// StatusError is a non-2xx backend answer; it matches ErrUnexpectedStatus
type StatusError struct {
	StatusCode int
	Table      string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d from %s: %s", ErrUnexpectedStatus, e.StatusCode, e.Table, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

func (c *Client) fetchPage(ctx context.Context, table string, query url.Values, decode func(io.Reader) (int, error)) (int, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(table), query.Encode())

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if c.apiKey != "" {
		headers.Set("apikey", c.apiKey)
		headers.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Get(ctx, endpoint, headers)
	if err != nil {
		metrics.RecordSourceRequest(table, "error", time.Since(start).Seconds())
		return 0, err
	}
	defer resp.Body.Close()

	metrics.RecordSourceRequest(table, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &StatusError{StatusCode: resp.StatusCode, Table: table, Body: strings.TrimSpace(string(snippet))}
	}

	return decode(resp.Body)
}
