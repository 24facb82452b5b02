package httpinject

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ModifyResponse returns a hook for httputil.ReverseProxy that injects the
// loader into upstream HTML pages.
func ModifyResponse(loader PageLoader, opts ...Option) func(*http.Response) error {
	s := applyOptions(opts)
	return func(resp *http.Response) error {
		if resp.Request == nil || !Rewritable(resp.StatusCode, resp.Header) {
			return nil
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("httpinject: read upstream body: %w", err)
		}
		if len(body) > 0 {
			body = s.rewriteOrKeep(resp.Request, loader, body)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
		return nil
	}
}
