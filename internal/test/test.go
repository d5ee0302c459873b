// Package test holds the fixtures shared by the package tests: MCP clients, a NetBox mock
// server and helpers to run the HTTP server on a free port.
package test

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// Must returns v, panicking on err. Meant for fixtures that cannot fail.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// FreePort returns a local TCP port that was free when probed.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// WaitForHealthz polls the /healthz endpoint of the server listening on port until it answers 200.
func WaitForHealthz(port int, timeout time.Duration) error {
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		lastErr = err
		time.Sleep(25 * time.Millisecond)
	}
	return fmt.Errorf("%s not healthy after %v: %w", url, timeout, lastErr)
}
