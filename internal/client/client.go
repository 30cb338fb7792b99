// Package client is a thin HTTP client for the harvester's REST surface
// (spec.md §6), used by cmd/ so every subcommand is a one-line wrapper
// around a single route.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// EndpointEnvVar overrides the default endpoint when set.
const EndpointEnvVar = "HARVESTER_ENDPOINT"

// DefaultEndpoint is used when --endpoint is unset and HARVESTER_ENDPOINT is
// unset.
const DefaultEndpoint = "http://127.0.0.1:8080"

// DefaultEndpointFromEnv returns the environment's endpoint override, or
// DefaultEndpoint if unset. Used as a cobra flag default at registration
// time.
func DefaultEndpointFromEnv() string {
	if v := os.Getenv(EndpointEnvVar); v != "" {
		return v
	}
	return DefaultEndpoint
}

// Client calls the harvester's REST surface over plain HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client bound to baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is returned when the server responds with an unexpected HTTP
// status; the CLI surfaces Body to the operator verbatim.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, wantStatus ...int) (string, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return "", fmt.Errorf("client: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("client: read response: %w", err)
	}
	text := strings.TrimRight(string(body), "\n")

	if len(wantStatus) == 0 {
		wantStatus = []int{http.StatusOK}
	}
	for _, want := range wantStatus {
		if resp.StatusCode == want {
			return text, nil
		}
	}
	return text, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: text}
}

// StartHarvest calls POST /.
func (c *Client) StartHarvest(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodPost, "/", nil, http.StatusAccepted)
}

// Overview calls GET /.
func (c *Client) Overview(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/", nil)
}

// State calls GET /state.
func (c *Client) State(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/state", nil)
}

// Progress calls GET /progress.
func (c *Client) Progress(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/progress", nil)
}

// Outdated calls GET /outdated.
func (c *Client) Outdated(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/outdated", nil)
}

// Abort calls POST /abort.
func (c *Client) Abort(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodPost, "/abort", nil, http.StatusAccepted)
}

// Save calls GET /download (spec.md's name for "start save").
func (c *Client) Save(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/download", nil, http.StatusAccepted)
}

// Submit calls POST /submit.
func (c *Client) Submit(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodPost, "/submit", nil, http.StatusAccepted)
}

// Reset calls POST /reset.
func (c *Client) Reset(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodPost, "/reset", nil, http.StatusAccepted)
}

// MaxDocuments calls GET /max-documents.
func (c *Client) MaxDocuments(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/max-documents", nil)
}

// DataProvider calls GET /data-provider.
func (c *Client) DataProvider(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/data-provider", nil)
}

// HarvestedDocuments calls GET /harvested-documents.
func (c *Client) HarvestedDocuments(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/harvested-documents", nil)
}

// Log calls GET /log. since may be zero to mean "no lower bound"; level and
// classes may be empty.
func (c *Client) Log(ctx context.Context, since time.Time, level string, classes []string) (string, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("date", since.Format(time.RFC3339))
	}
	if level != "" {
		query.Set("level", level)
	}
	if len(classes) > 0 {
		query.Set("class", strings.Join(classes, ","))
	}
	return c.do(ctx, http.MethodGet, "/log", query)
}

// Reachable reports whether the server answers GET /state at all, used by
// cmd/version to distinguish "not running" from a real error.
func (c *Client) Reachable(ctx context.Context) bool {
	_, err := c.State(ctx)
	if err == nil {
		return true
	}
	var statusErr *StatusError
	return asStatusError(err, &statusErr)
}

func asStatusError(err error, target **StatusError) bool {
	se, ok := err.(*StatusError)
	if ok {
		*target = se
	}
	return ok
}
