package omniture

import (
	"context"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/omniture/internal/http"
	"github.com/wesleyorama2/omniture/internal/rate"
	"github.com/wesleyorama2/omniture/internal/wsse"
)

// DefaultEndpoint is the REST endpoint of the 1.3 reporting API.
const DefaultEndpoint = "https://api.omniture.com/admin/1.3/rest/"

// UserAgent is sent with every API call.
const UserAgent = "omniture-go"

// PacingStats reports how calls were spaced by WithRateLimit.
type PacingStats = rate.Stats

// Requester issues one API call identified by an API namespace and method
// name and returns the parsed response body.
type Requester interface {
	Request(ctx context.Context, api, method string, params map[string]any) (gjson.Result, error)
}

// LatencyRecorder receives the duration of every API call.
type LatencyRecorder interface {
	Record(d time.Duration, failed bool)
}

// Account is an authenticated session against the reporting API.
type Account struct {
	endpoint   string
	timeout    time.Duration
	httpClient *nethttp.Client
	recorder   LatencyRecorder
	rateLimit  float64

	client *http.Client
	pacer  *rate.Pacer

	mu     sync.RWMutex
	token  *wsse.Token
	suites *Collection[*Suite]
}

// AccountOption configures an Account.
type AccountOption func(*Account)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) AccountOption {
	return func(a *Account) {
		a.endpoint = endpoint
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(timeout time.Duration) AccountOption {
	return func(a *Account) {
		a.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *nethttp.Client) AccountOption {
	return func(a *Account) {
		a.httpClient = hc
	}
}

// WithLatencyRecorder reports every call duration to r.
func WithLatencyRecorder(r LatencyRecorder) AccountOption {
	return func(a *Account) {
		a.recorder = r
	}
}

// WithRateLimit spaces API calls to at most perSecond calls per second.
// Zero, the default, sends calls as fast as they are made.
func WithRateLimit(perSecond float64) AccountOption {
	return func(a *Account) {
		a.rateLimit = perSecond
	}
}

// NewAccount creates an unauthenticated Account.
func NewAccount(opts ...AccountOption) *Account {
	a := &Account{
		endpoint: DefaultEndpoint,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	clientOpts := []http.ClientOption{
		http.WithEndpoint(a.endpoint),
		http.WithTimeout(a.timeout),
		http.WithHeader("Accept", "application/json"),
		http.WithHeader("User-Agent", UserAgent),
	}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, http.WithHTTPClient(a.httpClient))
	}
	if a.recorder != nil {
		clientOpts = append(clientOpts, http.WithRecorder(a.recorder))
	}
	if a.rateLimit > 0 {
		a.pacer = rate.NewPacer(a.rateLimit)
		clientOpts = append(clientOpts, http.WithLimiter(a.pacer))
	}
	a.client = http.NewClient(clientOpts...)

	return a
}

// Endpoint returns the API endpoint.
func (a *Account) Endpoint() string {
	return a.endpoint
}

// Pacing returns the call spacing counters. ok is false when no rate limit
// is set.
func (a *Account) Pacing() (stats PacingStats, ok bool) {
	if a.pacer == nil {
		return PacingStats{}, false
	}
	return a.pacer.Stats(), true
}

// Authenticate stores the credentials and loads the account's report suites.
func (a *Account) Authenticate(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Secret == "" {
		return fmt.Errorf("username and secret are required: %w", ErrMissingCredentials)
	}

	token := wsse.New(creds.Username, creds.Secret)

	a.mu.Lock()
	a.token = token
	a.suites = nil
	a.mu.Unlock()

	return a.initialize(ctx)
}

// AuthenticateFrom reads OMNITURE_USERNAME and OMNITURE_SECRET, decorated
// with prefix and suffix, from src and authenticates with them.
func (a *Account) AuthenticateFrom(ctx context.Context, src Source, prefix, suffix string) error {
	creds, err := CredentialsFrom(src, prefix, suffix)
	if err != nil {
		return err
	}
	return a.Authenticate(ctx, creds)
}

func (a *Account) initialize(ctx context.Context) error {
	data, err := a.Request(ctx, "Company", "GetReportSuites", nil)
	if err != nil {
		return fmt.Errorf("failed to load report suites: %w", err)
	}

	list := data.Get("report_suites")
	if !list.IsArray() {
		return fmt.Errorf("Company.GetReportSuites: report_suites: %w", ErrMalformedResponse)
	}

	var suites []*Suite
	list.ForEach(func(_, item gjson.Result) bool {
		suites = append(suites, NewSuite(item.Get("site_title").String(), item.Get("rsid").String(), a))
		return true
	})

	a.mu.Lock()
	a.suites = NewCollection("suites", suites)
	a.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Int("suites", len(suites)).Msg("Loaded report suites")
	return nil
}

// Suites returns the report suites loaded by Authenticate.
func (a *Account) Suites() (*Collection[*Suite], error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.suites == nil {
		return nil, ErrNotAuthenticated
	}
	return a.suites, nil
}

// Suite is a shortcut for looking up one report suite by id or title.
func (a *Account) Suite(key string) (*Suite, error) {
	suites, err := a.Suites()
	if err != nil {
		return nil, err
	}
	return suites.Get(key)
}

// Request implements Requester. params is sent as the JSON body; a nil map
// is sent as an empty object.
func (a *Account) Request(ctx context.Context, api, method string, params map[string]any) (gjson.Result, error) {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()
	if token == nil {
		return gjson.Result{}, ErrNotAuthenticated
	}

	call := api + "." + method
	req := http.NewRequest(call).
		WithHeader(wsse.HeaderName, token.Header())
	if params != nil {
		req.WithParams(params)
	}

	logger := zerolog.Ctx(ctx)
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		logger.Debug().Err(err).Str("method", call).Msg("API call failed")
		return gjson.Result{}, fmt.Errorf("%s: %w", call, err)
	}

	logger.Debug().
		Str("method", call).
		Int("status", resp.StatusCode).
		Dur("connect", resp.Timing.TCPConnectTime).
		Dur("tls", resp.Timing.TLSHandshakeTime).
		Dur("ttfb", resp.Timing.TimeToFirstByte).
		Dur("duration", resp.Timing.TotalTime).
		Msg("API call")

	body := resp.JSON()
	if apiErr := apiError(resp.StatusCode, body); apiErr != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", call, apiErr)
	}
	if !resp.IsSuccess() {
		return gjson.Result{}, fmt.Errorf("%s: %w", call, &APIError{
			StatusCode:  resp.StatusCode,
			Description: resp.Text(),
		})
	}
	if !body.Exists() {
		return gjson.Result{}, fmt.Errorf("%s: invalid JSON body: %w", call, ErrMalformedResponse)
	}

	return body, nil
}

// apiError extracts the {"error": ..., "error_description": ...} envelope
// the API uses for failures.
func apiError(statusCode int, body gjson.Result) *APIError {
	if !body.IsObject() {
		return nil
	}
	code := body.Get("error")
	if !code.Exists() {
		return nil
	}
	return &APIError{
		StatusCode:  statusCode,
		Code:        code.String(),
		Description: body.Get("error_description").String(),
	}
}
