package grr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// The server prefixes JSON responses to defend against XSSI.
const xssiPrefix = ")]}'"

type Option func(c *Client)

// WithRateLimit bounds the number of requests per second shared by every caller of the client.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithRetryMax sets how many times transient failures (5xx, 429, connection errors) are retried.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = min
		c.http.RetryWaitMax = max
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http.HTTPClient = hc
	}
}

// Client talks to the GRR HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	http     *retryablehttp.Client
	limiter  *rate.Limiter
}

func NewClient(serverURL, username, password string, opts ...Option) (*Client, error) {
	u, err := url.ParseRequestURI(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid grr url %q: %w", serverURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	hc := retryablehttp.NewClient()
	hc.Logger = zapLogger{log: zap.S().Named("grr")}
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:  u,
		username: username,
		password: password,
		http:     hc,
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

// SearchClients returns the clients matching query.
func (c *Client) SearchClients(ctx context.Context, query string) ([]ClientInfo, error) {
	var resp listClientsResponse
	params := url.Values{"query": []string{query}}
	if err := c.getJSON(ctx, "/api/clients", params, &resp); err != nil {
		return nil, fmt.Errorf("searching clients for %q: %w", query, err)
	}
	return resp.Items, nil
}

func (c *Client) GetClient(ctx context.Context, clientID string) (*ClientInfo, error) {
	var cl ClientInfo
	if err := c.getJSON(ctx, "/api/clients/"+url.PathEscape(clientID), nil, &cl); err != nil {
		return nil, fmt.Errorf("getting client %s: %w", clientID, err)
	}
	return &cl, nil
}

// ListFlows requires a valid client approval. It is used to probe for one.
func (c *Client) ListFlows(ctx context.Context, clientID string) ([]Flow, error) {
	var resp listFlowsResponse
	if err := c.getJSON(ctx, "/api/clients/"+url.PathEscape(clientID)+"/flows", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing flows of %s: %w", clientID, err)
	}
	return resp.Items, nil
}

func (c *Client) CreateFlow(ctx context.Context, clientID, name string, args ArtifactCollectorFlowArgs) (*Flow, error) {
	var req createFlowRequest
	req.Flow.Name = name
	req.Flow.Args = args

	var flow Flow
	if err := c.postJSON(ctx, "/api/clients/"+url.PathEscape(clientID)+"/flows", req, &flow); err != nil {
		return nil, fmt.Errorf("creating flow %s on %s: %w", name, clientID, err)
	}
	if flow.FlowID == "" {
		return nil, fmt.Errorf("creating flow %s on %s: server returned no flow id", name, clientID)
	}
	return &flow, nil
}

func (c *Client) GetFlow(ctx context.Context, clientID, flowID string) (*Flow, error) {
	var flow Flow
	p := fmt.Sprintf("/api/clients/%s/flows/%s", url.PathEscape(clientID), url.PathEscape(flowID))
	if err := c.getJSON(ctx, p, nil, &flow); err != nil {
		return nil, fmt.Errorf("getting flow %s on %s: %w", flowID, clientID, err)
	}
	return &flow, nil
}

func (c *Client) CreateClientApproval(ctx context.Context, clientID, reason string, approvers []string) error {
	req := createApprovalRequest{Approval: ApprovalRequest{Reason: reason, NotifiedUsers: approvers}}
	if err := c.postJSON(ctx, "/api/users/me/approvals/client/"+url.PathEscape(clientID), req, nil); err != nil {
		return fmt.Errorf("requesting approval for client %s: %w", clientID, err)
	}
	return nil
}

func (c *Client) GetHunt(ctx context.Context, huntID string) (*Hunt, error) {
	var hunt Hunt
	if err := c.getJSON(ctx, "/api/hunts/"+url.PathEscape(huntID), nil, &hunt); err != nil {
		return nil, fmt.Errorf("getting hunt %s: %w", huntID, err)
	}
	return &hunt, nil
}

func (c *Client) CreateHuntApproval(ctx context.Context, huntID, reason string, approvers []string) error {
	req := createApprovalRequest{Approval: ApprovalRequest{Reason: reason, NotifiedUsers: approvers}}
	if err := c.postJSON(ctx, "/api/users/me/approvals/hunt/"+url.PathEscape(huntID), req, nil); err != nil {
		return fmt.Errorf("requesting approval for hunt %s: %w", huntID, err)
	}
	return nil
}

// GetFlowFilesArchive streams the zip archive of the files collected by a flow into w.
func (c *Client) GetFlowFilesArchive(ctx context.Context, clientID, flowID string, w io.Writer) (int64, error) {
	p := fmt.Sprintf("/api/clients/%s/flows/%s/results/files-archive", url.PathEscape(clientID), url.PathEscape(flowID))
	n, err := c.download(ctx, p, w)
	if err != nil {
		return n, fmt.Errorf("downloading archive of flow %s on %s: %w", flowID, clientID, err)
	}
	return n, nil
}

// GetHuntFilesArchive streams the zip archive of every file collected by a hunt into w.
func (c *Client) GetHuntFilesArchive(ctx context.Context, huntID string, w io.Writer) (int64, error) {
	n, err := c.download(ctx, "/api/hunts/"+url.PathEscape(huntID)+"/results/files-archive", w)
	if err != nil {
		return n, fmt.Errorf("downloading archive of hunt %s: %w", huntID, err)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, p string, params url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, p, params, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return decode(resp.Body, out)
}

func (c *Client) postJSON(ctx context.Context, p string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, p, nil, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decode(resp.Body, out)
}

func (c *Client) download(ctx context.Context, p string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, p, nil, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.Copy(w, resp.Body)
}

// do sends the request and turns any non 2xx response into an error.
func (c *Client) do(ctx context.Context, method, p string, params url.Values, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path += p
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("strip_type_info", "1")
	u.RawQuery = q.Encode()

	var rawBody any
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), rawBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	return nil, statusError(resp)
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusForbidden:
		return ErrAccessForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var e errorResponse
	if err := json.Unmarshal(stripXSSI(data), &e); err == nil && e.Message != "" {
		apiErr.Message = e.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func decode(r io.Reader, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(stripXSSI(data), out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func stripXSSI(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte(xssiPrefix)) {
		return trimmed[len(xssiPrefix):]
	}
	return data
}
