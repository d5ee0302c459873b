package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/version"
)

const (
	BranchModeQuery  = "query"
	BranchModeHeader = "header"

	// BranchQueryParameter carries the active branch schema ID when BranchModeQuery is used.
	BranchQueryParameter = "_branch"
	// BranchHeader carries the active branch schema ID when BranchModeHeader is used.
	BranchHeader = "X-NetBox-Branch"

	DefaultBranchesEndpoint = "plugins/branching/branches"
	DefaultTimeout          = 30 * time.Second

	maxErrorBodyLength = 4096
)

var tracer = otel.Tracer("netbox-mcp-server/netbox")

// Options configure a RestClient.
type Options struct {
	// URL is the NetBox base URL, without the /api suffix.
	URL   string
	Token string
	// VerifySSL toggles TLS certificate verification.
	VerifySSL bool
	// CertificateAuthority is an optional PEM file added to the system roots.
	CertificateAuthority string
	Timeout              time.Duration
	// Branch is the initial active branch schema ID.
	Branch string
	// BranchMode selects how the active branch is attached to a request (query or header).
	BranchMode string
	// BranchesEndpoint is the branches collection path relative to the API root.
	BranchesEndpoint string
	// RequestsPerSecond limits the outgoing request rate, zero disables the limit.
	RequestsPerSecond float64
	UserAgent         string
}

// RequestObserver is notified after each NetBox API round trip.
// statusCode is zero when the request failed before a response was received.
type RequestObserver func(ctx context.Context, method, path string, statusCode int, duration time.Duration)

type RestClientOption func(*RestClient)

// WithHTTPClient replaces the HTTP client built from the Options.
func WithHTTPClient(httpClient *http.Client) RestClientOption {
	return func(c *RestClient) {
		c.httpClient = httpClient
	}
}

// WithRequestObserver registers a RequestObserver.
func WithRequestObserver(observer RequestObserver) RestClientOption {
	return func(c *RestClient) {
		c.observers = append(c.observers, observer)
	}
}

// RestClient implements Client and BranchClient against the NetBox REST API.
type RestClient struct {
	apiURL           *url.URL
	authorization    string
	userAgent        string
	branchMode       string
	branchesEndpoint string
	httpClient       *http.Client
	limiter          *rate.Limiter
	observers        []RequestObserver

	branchMu sync.RWMutex
	branch   string
}

var (
	_ Client       = (*RestClient)(nil)
	_ BranchClient = (*RestClient)(nil)
)

// NewRestClient validates the Options and creates a RestClient.
func NewRestClient(opts Options, clientOpts ...RestClientOption) (*RestClient, error) {
	baseStr := strings.TrimSpace(opts.URL)
	if baseStr == "" {
		return nil, &ConfigurationError{Reason: "NetBox URL is required"}
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, &ConfigurationError{Reason: "NetBox token is required"}
	}
	baseURL, err := url.Parse(baseStr)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid NetBox URL: %v", err)}
	}
	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("NetBox URL must be an absolute http(s) URL: %s", baseStr)}
	}
	baseURL.RawQuery = ""
	baseURL.Fragment = ""
	c := &RestClient{
		apiURL:           baseURL.JoinPath("api"),
		authorization:    authorizationHeader(opts.Token),
		userAgent:        opts.UserAgent,
		branchMode:       opts.BranchMode,
		branchesEndpoint: strings.Trim(opts.BranchesEndpoint, "/"),
		branch:           strings.TrimSpace(opts.Branch),
	}
	switch c.branchMode {
	case "":
		c.branchMode = BranchModeQuery
	case BranchModeQuery, BranchModeHeader:
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid branch mode %q, must be one of: %s, %s", c.branchMode, BranchModeQuery, BranchModeHeader)}
	}
	if c.branchesEndpoint == "" {
		c.branchesEndpoint = DefaultBranchesEndpoint
	}
	if c.userAgent == "" {
		c.userAgent = version.BinaryName + "/" + version.Version
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	for _, opt := range clientOpts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = createHTTPClient(opts)
	}
	return c, nil
}

func createHTTPClient(opts Options) *http.Client {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !opts.VerifySSL, //nolint:gosec // allowed via configuration
	}
	if caValue := strings.TrimSpace(opts.CertificateAuthority); caValue != "" {
		caPEM, err := os.ReadFile(caValue)
		if err != nil {
			klog.Errorf("failed to read CA certificate from file %s: %v; proceeding without custom CA", caValue, err)
		} else {
			var certPool *x509.CertPool
			if systemPool, err := x509.SystemCertPool(); err == nil && systemPool != nil {
				certPool = systemPool
			} else {
				certPool = x509.NewCertPool()
			}
			if ok := certPool.AppendCertsFromPEM(caPEM); ok {
				tlsConfig.RootCAs = certPool
			} else {
				klog.V(0).Infof("failed to append provided certificate authority; proceeding without custom CA")
			}
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &http.Client{Transport: transport, Timeout: timeout}
}

// authorizationHeader keeps an explicit scheme, uses Bearer for v2 (nbt_) tokens and Token otherwise.
func authorizationHeader(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "Token ") || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	if strings.HasPrefix(token, "nbt_") {
		return "Bearer " + token
	}
	return "Token " + token
}

// request describes a single NetBox API call.
type request struct {
	method string
	// target is either a path relative to the API root or an absolute URL (pagination links).
	target string
	query  url.Values
	body   any
	branch string
}

// resolve builds the absolute request URL, keeping NetBox's trailing slash convention.
func (c *RestClient) resolve(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid request target %q: %w", target, err)
	}
	if u.IsAbs() {
		// Links reported by NetBox keep their path and query but are sent to the configured origin only
		if u.Scheme != c.apiURL.Scheme || u.Host != c.apiURL.Host {
			klog.V(2).Infof("netbox link to %s://%s rebased onto %s://%s", u.Scheme, u.Host, c.apiURL.Scheme, c.apiURL.Host)
		}
		u.Scheme = c.apiURL.Scheme
		u.Host = c.apiURL.Host
		u.User = nil
		return u, nil
	}
	if u.Host != "" {
		return nil, fmt.Errorf("request target must be a relative path or an absolute URL: %s", target)
	}
	p := strings.Trim(u.Path, "/")
	ret := c.apiURL.JoinPath(p)
	if !strings.HasSuffix(ret.Path, "/") {
		ret.Path += "/"
	}
	ret.RawQuery = u.RawQuery
	return ret, nil
}

// requestURL resolves target and adds query to the query string the target already carries.
func (c *RestClient) requestURL(target string, query url.Values) (*url.URL, error) {
	u, err := c.resolve(target)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u, nil
}

// do performs a single round trip and returns the raw response body of a 2xx response.
func (c *RestClient) do(ctx context.Context, r request) ([]byte, int, error) {
	u, err := c.requestURL(r.target, r.query)
	if err != nil {
		return nil, 0, err
	}
	if r.branch != "" && c.branchMode == BranchModeQuery {
		query := u.Query()
		query.Set(BranchQueryParameter, r.branch)
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return nil, 0, &NetworkError{Method: r.method, URL: u.Path, Err: err}
		}
	}

	ctx, span := tracer.Start(ctx, "netbox "+r.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.path", u.Path),
			attribute.String("server.address", u.Host),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.branch != "" && c.branchMode == BranchModeHeader {
		req.Header.Set(BranchHeader, r.branch)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	klog.V(2).Infof("netbox API call: %s %s", r.method, u.Path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(ctx, r.method, u.Path, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, &NetworkError{Method: r.method, URL: u.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	c.observe(ctx, r.method, u.Path, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, resp.StatusCode, &NetworkError{Method: r.method, URL: u.Path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	klog.V(5).Infof("netbox API response: %s %s %d", r.method, u.Path, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		errBody := string(respBody)
		if len(errBody) > maxErrorBodyLength {
			errBody = truncateUTF8(errBody, maxErrorBodyLength) + "..."
		}
		return nil, resp.StatusCode, &RemoteError{Method: r.method, URL: u.Path, StatusCode: resp.StatusCode, Body: errBody}
	}
	span.SetStatus(codes.Ok, "")
	return respBody, resp.StatusCode, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (c *RestClient) observe(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	for _, o := range c.observers {
		o(ctx, method, path, statusCode, duration)
	}
}

// doJSON performs a round trip and decodes the response into out (if not nil and the body is not empty).
func (c *RestClient) doJSON(ctx context.Context, r request, out any) error {
	respBody, _, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()
	if err = decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode NetBox response: %w", err)
	}
	return nil
}

type page struct {
	Count    *int64          `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// list fetches the first page at target and follows every "next" link, accumulating results in order,
// until pagination is exhausted or, when limit is positive, until limit objects are collected.
// A "next" link pointing at an already fetched page fails the listing.
func (c *RestClient) list(ctx context.Context, target string, query url.Values, branch string, limit int) ([]Object, error) {
	ret := make([]Object, 0)
	visited := make(map[string]struct{})
	next := target
	for next != "" && (limit <= 0 || len(ret) < limit) {
		u, err := c.requestURL(next, query)
		if err != nil {
			return nil, err
		}
		if _, ok := visited[u.String()]; ok {
			return nil, &NetworkError{Method: http.MethodGet, URL: u.Path, Err: fmt.Errorf("pagination loop, page %s was already fetched", u.RequestURI())}
		}
		visited[u.String()] = struct{}{}
		var raw json.RawMessage
		if err = c.doJSON(ctx, request{method: http.MethodGet, target: u.String(), branch: branch}, &raw); err != nil {
			return nil, err
		}
		// Follow-up pages carry their own query string
		query = nil
		next = ""
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			break
		}
		if trimmed[0] == '[' {
			var items []Object
			if err := decodeJSON(trimmed, &items); err != nil {
				return nil, err
			}
			ret = append(ret, items...)
			break
		}
		var p page
		if err := decodeJSON(trimmed, &p); err != nil {
			return nil, err
		}
		if p.Results == nil {
			var single Object
			if err := decodeJSON(trimmed, &single); err != nil {
				return nil, err
			}
			ret = append(ret, single)
			break
		}
		var items []Object
		if err := decodeJSON(p.Results, &items); err != nil {
			return nil, err
		}
		ret = append(ret, items...)
		if p.Next != nil {
			next = strings.TrimSpace(*p.Next)
		}
	}
	if limit > 0 && len(ret) > limit {
		ret = ret[:limit]
	}
	return ret, nil
}

func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode NetBox response: %w", err)
	}
	return nil
}

// encodeFilters converts filters into query parameters, list values become repeated parameters.
func encodeFilters(filters Filters) url.Values {
	query := url.Values{}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := filters[k].(type) {
		case nil:
			continue
		case []any:
			for _, item := range v {
				query.Add(k, filterValue(item))
			}
		case []string:
			for _, item := range v {
				query.Add(k, item)
			}
		case []int64:
			for _, item := range v {
				query.Add(k, strconv.FormatInt(item, 10))
			}
		default:
			query.Add(k, filterValue(v))
		}
	}
	return query
}

func filterValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

func objectPath(objectType ObjectType) string {
	return objectType.Path() + "/"
}

func objectIDPath(objectType ObjectType, id int64) string {
	return objectType.Path() + "/" + strconv.FormatInt(id, 10) + "/"
}

func (c *RestClient) Get(ctx context.Context, objectType ObjectType, filters Filters) ([]Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	return c.list(ctx, objectPath(objectType), encodeFilters(filters), c.ActiveBranch(), 0)
}

func (c *RestClient) Search(ctx context.Context, objectType ObjectType, query string, limit int) ([]Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	if limit <= 0 {
		return nil, validationErrorf("limit must be a positive integer")
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, objectPath(objectType), q, c.ActiveBranch(), limit)
}

func (c *RestClient) GetByID(ctx context.Context, objectType ObjectType, id int64) (Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	ret := Object{}
	err := c.doJSON(ctx, request{method: http.MethodGet, target: objectIDPath(objectType, id), branch: c.ActiveBranch()}, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) Create(ctx context.Context, objectType ObjectType, data Object) (Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	ret := Object{}
	err := c.doJSON(ctx, request{method: http.MethodPost, target: objectPath(objectType), body: data, branch: c.ActiveBranch()}, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) Update(ctx context.Context, objectType ObjectType, id int64, data Object) (Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	ret := Object{}
	err := c.doJSON(ctx, request{method: http.MethodPatch, target: objectIDPath(objectType, id), body: data, branch: c.ActiveBranch()}, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) Delete(ctx context.Context, objectType ObjectType, id int64) (bool, error) {
	if !objectType.valid() {
		return false, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	return c.delete(ctx, request{method: http.MethodDelete, target: objectIDPath(objectType, id), branch: c.ActiveBranch()})
}

// delete maps a 2xx response to true and a 404 response to false.
func (c *RestClient) delete(ctx context.Context, r request) (bool, error) {
	_, status, err := c.do(ctx, r)
	if err != nil {
		if status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *RestClient) BulkCreate(ctx context.Context, objectType ObjectType, data []Object) ([]Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	if err := ValidateBulkObjects(data); err != nil {
		return nil, err
	}
	ret := make([]Object, 0, len(data))
	err := c.doJSON(ctx, request{method: http.MethodPost, target: objectPath(objectType), body: data, branch: c.ActiveBranch()}, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) BulkUpdate(ctx context.Context, objectType ObjectType, data []Object) ([]Object, error) {
	if !objectType.valid() {
		return nil, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	if err := ValidateBulkUpdate(data); err != nil {
		return nil, err
	}
	ret := make([]Object, 0, len(data))
	err := c.doJSON(ctx, request{method: http.MethodPatch, target: objectPath(objectType), body: data, branch: c.ActiveBranch()}, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) BulkDelete(ctx context.Context, objectType ObjectType, ids []int64) (bool, error) {
	if !objectType.valid() {
		return false, &InvalidObjectTypeError{Name: objectType.String(), Valid: ObjectTypeNames()}
	}
	if err := ValidateBulkIDs(ids); err != nil {
		return false, err
	}
	body := make([]map[string]int64, 0, len(ids))
	for _, id := range ids {
		body = append(body, map[string]int64{"id": id})
	}
	_, _, err := c.do(ctx, request{method: http.MethodDelete, target: objectPath(objectType), body: body, branch: c.ActiveBranch()})
	if err != nil {
		return false, err
	}
	return true, nil
}
