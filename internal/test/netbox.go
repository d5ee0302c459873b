package test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// NetBoxRequest is a request received by the NetBoxMockServer.
type NetBoxRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// NetBoxMockServer is an HTTP server emulating the NetBox REST API.
// Handlers are evaluated in registration order, the first one writing a response wins.
// Unhandled requests get a NetBox-like 404 response.
type NetBoxMockServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers []http.Handler
	requests []NetBoxRequest
	// Token, when set, is required in the Authorization header ("Token <Token>")
	Token string
}

func NewNetBoxMockServer() *NetBoxMockServer {
	ms := &NetBoxMockServer{Token: "0123456789abcdef0123456789abcdef01234567"}
	ms.server = httptest.NewServer(ms)
	return ms
}

func (m *NetBoxMockServer) URL() string {
	return m.server.URL
}

func (m *NetBoxMockServer) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

func (m *NetBoxMockServer) Handle(handler http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// HandleJSON responds with body and status to requests matching method and path (path relative to the server root).
func (m *NetBoxMockServer) HandleJSON(method, path string, status int, body string) {
	m.Handle(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method || req.URL.Path != path {
			return
		}
		WriteJSON(w, status, body)
	}))
}

// HandlePages serves a paginated list at path, each page pointing to the next one through the "next" link.
func (m *NetBoxMockServer) HandlePages(path string, pages ...string) {
	m.Handle(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet || req.URL.Path != path {
			return
		}
		idx := 0
		if p := req.URL.Query().Get("page"); p != "" {
			_, _ = fmt.Sscanf(p, "%d", &idx)
		}
		if idx < 0 || idx >= len(pages) {
			WriteJSON(w, http.StatusNotFound, `{"detail":"Invalid page."}`)
			return
		}
		next := "null"
		if idx+1 < len(pages) {
			q := req.URL.Query()
			q.Set("page", fmt.Sprintf("%d", idx+1))
			next = fmt.Sprintf(`"%s%s?%s"`, m.server.URL, path, q.Encode())
		}
		WriteJSON(w, http.StatusOK, fmt.Sprintf(`{"count":%d,"next":%s,"previous":null,"results":%s}`, len(pages), next, pages[idx]))
	}))
}

// Requests returns the requests received so far.
func (m *NetBoxMockServer) Requests() []NetBoxRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NetBoxRequest(nil), m.requests...)
}

func (m *NetBoxMockServer) ResetRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func (m *NetBoxMockServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	m.mu.Lock()
	m.requests = append(m.requests, NetBoxRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Header: req.Header.Clone(),
		Body:   string(body),
	})
	handlers := append([]http.Handler(nil), m.handlers...)
	m.mu.Unlock()

	if m.Token != "" {
		auth := req.Header.Get("Authorization")
		if !strings.HasSuffix(auth, " "+m.Token) {
			WriteJSON(w, http.StatusForbidden, `{"detail":"Invalid token"}`)
			return
		}
	}
	rw := &trackingResponseWriter{ResponseWriter: w}
	for _, handler := range handlers {
		req.Body = io.NopCloser(strings.NewReader(string(body)))
		handler.ServeHTTP(rw, req)
		if rw.written {
			return
		}
	}
	WriteJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
}

func WriteJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type trackingResponseWriter struct {
	http.ResponseWriter
	written bool
}

func (t *trackingResponseWriter) WriteHeader(code int) {
	t.written = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingResponseWriter) Write(b []byte) (int, error) {
	t.written = true
	return t.ResponseWriter.Write(b)
}
