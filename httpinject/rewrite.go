// Package httpinject runs a tag loader against HTML responses on the server,
// using the cookies of the incoming request.
package httpinject

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	tagloader "github.com/goliatone/go-tagloader"
	"github.com/goliatone/go-tagloader/dom"
	"github.com/goliatone/go-tagloader/htmldoc"
)

// PageLoader injects a loader into one page.
type PageLoader interface {
	Load(ctx context.Context, env dom.Environment) (tagloader.Result, error)
}

// Option configures Middleware and ModifyResponse.
type Option func(*settings)

type settings struct {
	logger *zap.Logger
}

// WithLogger reports rewrite failures to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Rewritable reports whether a response with status and header is an
// uncompressed HTML page.
func Rewritable(status int, header http.Header) bool {
	if status != http.StatusOK {
		return false
	}
	if header.Get("Content-Encoding") != "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// CookieHeader joins every Cookie header of r the way browsers expose
// document.cookie.
func CookieHeader(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

// Rewrite parses body, runs loader against it with cookie as document.cookie
// and renders the result.
func Rewrite(ctx context.Context, loader PageLoader, cookie string, body []byte) ([]byte, error) {
	doc, err := htmldoc.Parse(bytes.NewReader(body), htmldoc.WithCookie(cookie))
	if err != nil {
		return nil, err
	}
	if _, err := loader.Load(ctx, doc); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// rewriteOrKeep returns the original body when rewriting fails.
func (s settings) rewriteOrKeep(r *http.Request, loader PageLoader, body []byte) []byte {
	out, err := Rewrite(r.Context(), loader, CookieHeader(r), body)
	if err != nil {
		s.logger.Warn("tag injection skipped", zap.String("path", r.URL.Path), zap.Error(err))
		return body
	}
	return out
}
