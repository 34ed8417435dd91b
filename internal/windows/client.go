package windows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// API is the set of Windows API calls sill makes. *Client implements it;
// tests substitute fakes.
type API interface {
	ListWindows(ctx context.Context, query ListQuery) (ListResponse, error)
	GetWindow(ctx context.Context, id string) (Window, error)
	ListDuplicates(ctx context.Context, id string) ([]Window, error)
	UploadWindow(ctx context.Context, img Image) (Window, error)
	Health(ctx context.Context) (HealthResponse, error)
}

var _ API = (*Client)(nil)

// Observer receives the outcome of every request. status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Client talks to the Windows HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	observer  Observer
	tracer    trace.Tracer
}

const (
	defaultAPIURL    = "http://127.0.0.1:8000"
	defaultUserAgent = "sill/0.1"
	readTimeout      = 10 * time.Second
	// Uploads wait for the server-side image analysis.
	uploadTimeout = 90 * time.Second
	maxErrorBody  = 4 << 10
)

// Endpoint labels used for tracing and metrics.
const (
	EndpointList       = "list"
	EndpointGet        = "get"
	EndpointDuplicates = "duplicates"
	EndpointUpload     = "upload"
	EndpointHealth     = "health"
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver reports every request outcome to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the API rooted at apiURL. A bare host:port
// is treated as http.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		tracer:    otel.Tracer("github.com/five82/sill/internal/windows"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListQuery configures GET /api/windows requests.
type ListQuery struct {
	Page    int
	Limit   int
	Filters url.Values
}

// Values encodes the query. Empty and "all" filter values are dropped and
// every remaining filter is sent once.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	values.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "page" || k == "limit" {
			continue
		}
		for _, v := range q.Filters[k] {
			if v == "" || v == "all" {
				continue
			}
			values.Set(k, v)
			break
		}
	}
	return values
}

// ListWindows fetches one page of windows matching the query.
func (c *Client) ListWindows(ctx context.Context, query ListQuery) (ListResponse, error) {
	if c == nil {
		return ListResponse{}, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/windows", RawQuery: query.Values().Encode()}
	var payload ListResponse
	if err := c.doURL(ctx, EndpointList, http.MethodGet, rel, nil, "", &payload); err != nil {
		return ListResponse{}, err
	}
	return payload, nil
}

// GetWindow fetches a single window record.
func (c *Client) GetWindow(ctx context.Context, id string) (Window, error) {
	if c == nil {
		return Window{}, fmt.Errorf("client is nil")
	}
	rel, err := windowPath(id, "")
	if err != nil {
		return Window{}, err
	}
	var payload Window
	if err := c.doURL(ctx, EndpointGet, http.MethodGet, rel, nil, "", &payload); err != nil {
		return Window{}, err
	}
	return payload, nil
}

// windowPath builds /api/windows/<id><suffix> with id as a single escaped
// path segment.
func windowPath(id, suffix string) (*url.URL, error) {
	id = strings.TrimSpace(id)
	switch id {
	case "":
		return nil, fmt.Errorf("window id required")
	case ".", "..":
		return nil, fmt.Errorf("invalid window id %q", id)
	}
	return &url.URL{
		Path:    "/api/windows/" + id + suffix,
		RawPath: "/api/windows/" + url.PathEscape(id) + suffix,
	}, nil
}

// ListDuplicates fetches the other records sharing a window's image hash.
func (c *Client) ListDuplicates(ctx context.Context, id string) ([]Window, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := windowPath(id, "/duplicates")
	if err != nil {
		return nil, err
	}
	var payload []Window
	if err := c.doURL(ctx, EndpointDuplicates, http.MethodGet, rel, nil, "", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// UploadWindow validates img and posts it as the multipart field "file".
// Nothing is sent when validation fails.
func (c *Client) UploadWindow(ctx context.Context, img Image) (Window, error) {
	if c == nil {
		return Window{}, fmt.Errorf("client is nil")
	}
	if err := img.Validate(); err != nil {
		return Window{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(img.Name)))
	header.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return Window{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return Window{}, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Window{}, fmt.Errorf("close form: %w", err)
	}

	var payload Window
	rel := &url.URL{Path: "/api/windows"}
	if err := c.doURL(ctx, EndpointUpload, http.MethodPost, rel, &body, mw.FormDataContentType(), &payload); err != nil {
		return Window{}, err
	}
	return payload, nil
}

// Health calls the API liveness endpoint.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	if c == nil {
		return HealthResponse{}, fmt.Errorf("client is nil")
	}
	var payload HealthResponse
	if err := c.doURL(ctx, EndpointHealth, http.MethodGet, &url.URL{Path: "/health"}, nil, "", &payload); err != nil {
		return HealthResponse{}, err
	}
	return payload, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) doURL(ctx context.Context, endpoint, method string, rel *url.URL, body io.Reader, contentType string, dest any) (err error) {
	timeout := readTimeout
	if method != http.MethodGet {
		timeout = uploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "windows."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", rel.Path),
		))
	defer span.End()

	status := 0
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(endpoint, status, time.Since(start))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + rel.Path
	reqURL.RawPath = c.baseURL.EscapedPath() + rel.EscapedPath()
	reqURL.RawQuery = rel.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method: method,
			Path:   rel.Path,
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
		}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
