package device

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
)

// Middleware resolves the device in the background for every request and
// exposes the Future through the request context. A newly issued id is
// written as a cookie just before the response header goes out.
func Middleware(res *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := Go(r.Context(), func(ctx context.Context) (Identity, error) {
				return res.Resolve(ctx, r)
			})
			cw := &cookieWriter{ResponseWriter: w, r: r, future: f, res: res, logger: logger}
			next.ServeHTTP(cw, r.WithContext(WithFuture(r.Context(), f)))
			cw.setCookie()
		})
	}
}

type cookieWriter struct {
	http.ResponseWriter
	r      *http.Request
	future *Future
	res    *Resolver
	logger *slog.Logger
	once   sync.Once
}

func (w *cookieWriter) setCookie() {
	w.once.Do(func() {
		id, err := w.future.Identity(w.r.Context())
		if err != nil {
			w.logger.Warn("resolve device", "error", err)
			return
		}
		if id.Issued {
			http.SetCookie(w.ResponseWriter, w.res.Cookie(id.ID))
		}
	})
}

func (w *cookieWriter) WriteHeader(code int) {
	w.setCookie()
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	w.setCookie()
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
