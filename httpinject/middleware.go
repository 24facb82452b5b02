package httpinject

import (
	"bytes"
	"net/http"
	"strconv"
)

// Middleware buffers HTML responses from next and injects the loader before
// they are written. Other responses stream through untouched.
func Middleware(loader PageLoader, opts ...Option) func(http.Handler) http.Handler {
	s := applyOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)
			if !bw.buffering {
				return
			}
			body := bw.body.Bytes()
			if len(body) > 0 {
				body = s.rewriteOrKeep(r, loader, body)
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(bw.status)
			_, _ = w.Write(body)
		})
	}
}

type bufferedWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buffering   bool
	body        bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
	w.buffering = Rewritable(status, w.Header())
	if !w.buffering {
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.buffering {
		return w.body.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

// Flush forwards to the wrapped writer unless the response is being buffered.
func (w *bufferedWriter) Flush() {
	if w.buffering {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *bufferedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
