package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
)

// Client speaks the PostgREST dialect of the hosted data store: query-string
// filters on GET/PATCH/DELETE, JSON bodies on writes, and two credential
// tiers. The anon key is subject to row-level security; the service-role key
// bypasses it and is selected per call.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
	logger     core.Logger
}

func NewClient(baseURL, anonKey, serviceKey string, logger core.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Query accumulates PostgREST filter expressions for one request.
type Query struct {
	values url.Values
}

func NewQuery() *Query { return &Query{values: url.Values{}} }

func (q *Query) Select(columns string) *Query { return q.set("select", columns) }

// Eq adds `column=eq.value`.
func (q *Query) Eq(column string, value interface{}) *Query {
	return q.add(column, fmt.Sprintf("eq.%v", value))
}

// In adds `column=in.(a,b,c)`.
func (q *Query) In(column string, values []string) *Query {
	return q.add(column, fmt.Sprintf("in.(%s)", strings.Join(values, ",")))
}

// Gte adds `column=gte.value`.
func (q *Query) Gte(column string, value interface{}) *Query {
	return q.add(column, fmt.Sprintf("gte.%v", value))
}

// Lte adds `column=lte.value`.
func (q *Query) Lte(column string, value interface{}) *Query {
	return q.add(column, fmt.Sprintf("lte.%v", value))
}

// Or adds a disjunction, e.g. Or("name.ilike.*kim*", "email.ilike.*kim*").
func (q *Query) Or(conditions ...string) *Query {
	return q.set("or", fmt.Sprintf("(%s)", strings.Join(conditions, ",")))
}

func (q *Query) Order(expr string) *Query { return q.set("order", expr) }

func (q *Query) Limit(n int) *Query { return q.set("limit", fmt.Sprintf("%d", n)) }

func (q *Query) Offset(n int) *Query { return q.set("offset", fmt.Sprintf("%d", n)) }

func (q *Query) set(key, value string) *Query {
	q.values.Set(key, value)
	return q
}

func (q *Query) add(key, value string) *Query {
	q.values.Add(key, value)
	return q
}

func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	return q.values.Encode()
}

// Get runs a filtered select and decodes the row list into out.
func (c *Client) Get(ctx context.Context, table string, q *Query, serviceRole bool, out interface{}) error {
	return c.do(ctx, http.MethodGet, table, q, nil, serviceRole, out)
}

// Post inserts body (a row or row slice); inserted rows decode into out when
// non-nil.
func (c *Client) Post(ctx context.Context, table string, body interface{}, serviceRole bool, out interface{}) error {
	return c.do(ctx, http.MethodPost, table, nil, body, serviceRole, out)
}

// Patch updates the rows matched by q with the fields of body.
func (c *Client) Patch(ctx context.Context, table string, q *Query, body interface{}, serviceRole bool) error {
	return c.do(ctx, http.MethodPatch, table, q, body, serviceRole, nil)
}

// Delete removes the rows matched by q.
func (c *Client) Delete(ctx context.Context, table string, q *Query, serviceRole bool) error {
	return c.do(ctx, http.MethodDelete, table, q, nil, serviceRole, nil)
}

func (c *Client) do(ctx context.Context, method, table string, q *Query, body interface{}, serviceRole bool, out interface{}) error {
	op := fmt.Sprintf("%s %s", method, table)

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if qs := q.Encode(); qs != "" {
		endpoint += "?" + qs
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return core.NewUpstreamError(op, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return core.NewUpstreamError(op, err)
	}
	req = req.WithContext(ctx)

	key := c.anonKey
	if serviceRole {
		key = c.serviceKey
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NewUpstreamError(op, err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return core.NewUpstreamError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("data store request failed",
			map[string]interface{}{"op": op, "status": resp.StatusCode, "body": truncate(raw, 512)})
		return core.NewUpstreamError(op, errors.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 256)))
	}

	if out != nil && len(raw) > 0 {
		if err = json.Unmarshal(raw, out); err != nil {
			return core.NewUpstreamError(op, errors.Wrap(err, "malformed response"))
		}
	}
	return nil
}

func truncate(raw []byte, max int) string {
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
