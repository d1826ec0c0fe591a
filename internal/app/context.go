package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"shopbridge/internal/resolver"
	"shopbridge/pkg/apperrors"
	"shopbridge/pkg/shop"
)

type ctxShopContextKey struct{}

// WithAPIContext authenticates server-to-server calls on protected routes
// and attaches the resolved Context to the request.
func (a *App) WithAPIContext(next http.Handler) http.Handler {
	return a.contextMiddleware(next, a.Resolver.FromAPI)
}

// WithBrowserContext authenticates module requests from the platform admin.
func (a *App) WithBrowserContext(next http.Handler) http.Handler {
	return a.contextMiddleware(next, a.Resolver.FromBrowser)
}

func (a *App) contextMiddleware(next http.Handler, resolve func(*http.Request) (*resolver.Context, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx, err := resolve(r)
		if err != nil {
			status := http.StatusBadRequest
			message := "Invalid Request"
			var svcErr *apperrors.ServiceError
			if errors.As(err, &svcErr) {
				status = svcErr.Status
				message = svcErr.Message
			}
			w.Header().Set("content-type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
			return
		}
		ctx := context.WithValue(r.Context(), ctxShopContextKey{}, rctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextFrom returns the Context resolved by the middleware, or nil when
// the request went through an unprotected route.
func ContextFrom(ctx context.Context) *resolver.Context {
	if v := ctx.Value(ctxShopContextKey{}); v != nil {
		return v.(*resolver.Context)
	}
	return nil
}

// WriteSigned JSON-encodes v, signs the body with the shop's secret and
// writes the response. Business handlers use this so the shop can verify
// the answer came from the genuine app.
func (a *App) WriteSigned(w http.ResponseWriter, s shop.Shop, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	a.Signer.SignResponse(w.Header(), body, s.ShopSecret())
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
