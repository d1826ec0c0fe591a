package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbridge/internal/app"
	"shopbridge/internal/signer"
	"shopbridge/pkg/shop"
)

const (
	appName   = "TestApp"
	appSecret = "test-app-secret"
)

func newTestApp(t *testing.T) (*app.App, *chi.Mux) {
	t.Helper()
	a := app.New(app.Config{
		AppName:              appName,
		AppSecret:            appSecret,
		AuthorizeCallbackURL: "https://app.test/app/register/confirm",
	}, shop.NewMemoryRepository(), app.WithRegisterer(prometheus.NewRegistry()))

	r := chi.NewRouter()
	r.Route("/app", a.Mount)
	return a, r
}

// TestFullHandshake drives the mounted routes through the entire
// register -> confirm -> activate flow.
func TestFullHandshake(t *testing.T) {
	a, router := newTestApp(t)

	// Step 1: the platform registers the shop.
	target := "/app/register?shop-id=123&shop-url=https://shop.test&timestamp=1000"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(signer.SignatureHeader, a.Signer.Sign("shop-id=123&shop-url=https://shop.test&timestamp=1000", appSecret))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var authResp struct {
		Proof  string `json:"proof"`
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authResp))
	require.NotEmpty(t, authResp.Proof)

	// Step 2: the shop confirms with its OAuth credentials.
	body := `{"shopId":"123","apiKey":"api-key","secretKey":"secret-key"}`
	req = httptest.NewRequest(http.MethodPost, "/app/register/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set(signer.ShopSignatureHeader, a.Signer.Sign(body, authResp.Secret))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Step 3: the platform activates the app.
	webhook := `{"source":{"shopId":"123","url":"https://shop.test","appVersion":"1.0.0"},"meta":{}}`
	req = httptest.NewRequest(http.MethodPost, "/app/activate", bytes.NewReader([]byte(webhook)))
	req.Header.Set(signer.ShopSignatureHeader, a.Signer.Sign(webhook, authResp.Secret))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	s, err := a.Repo.GetShopByID(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, s.Active())
	assert.Equal(t, "api-key", s.ClientID())
}

func TestAPIContextMiddleware(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.Repo.CreateShop(context.Background(), "shop-1", "https://shop.test", "shop-secret"))

	handler := a.WithAPIContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := app.ContextFrom(r.Context())
		require.NotNil(t, rctx)
		w.Write([]byte(rctx.Shop.ShopID()))
	}))

	t.Run("authenticated request passes", func(t *testing.T) {
		body := `{"source":{"shopId":"shop-1"}}`
		req := httptest.NewRequest(http.MethodPost, "/action/button", bytes.NewReader([]byte(body)))
		req.Header.Set(signer.ShopSignatureHeader, a.Signer.Sign(body, "shop-secret"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "shop-1", rec.Body.String())
	})

	t.Run("bad signature is rejected with 401", func(t *testing.T) {
		body := `{"source":{"shopId":"shop-1"}}`
		req := httptest.NewRequest(http.MethodPost, "/action/button", bytes.NewReader([]byte(body)))
		req.Header.Set(signer.ShopSignatureHeader, "deadbeef")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Cannot validate app signature"}`, rec.Body.String())
	})

	t.Run("missing signature is rejected with 400", func(t *testing.T) {
		body := `{"source":{"shopId":"shop-1"}}`
		req := httptest.NewRequest(http.MethodPost, "/action/button", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBrowserContextMiddleware(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.Repo.CreateShop(context.Background(), "shop-1", "https://shop.test", "shop-secret"))

	handler := a.WithBrowserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := app.ContextFrom(r.Context())
		w.Write([]byte(rctx.Payload["location-id"].(string)))
	}))

	sig := a.Signer.Sign("shop-id=shop-1&location-id=orders", "shop-secret")
	req := httptest.NewRequest(http.MethodGet, "/module?shop-id=shop-1&location-id=orders&shopware-shop-signature="+sig, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "orders", rec.Body.String())
}

func TestWriteSigned(t *testing.T) {
	a, _ := newTestApp(t)
	s := shop.NewSimpleShop("shop-1", "https://shop.test", "shop-secret")

	rec := httptest.NewRecorder()
	require.NoError(t, a.WriteSigned(rec, s, http.StatusOK, map[string]string{"ok": "yes"}))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	sig := rec.Header().Get(signer.SignatureHeader)
	require.NotEmpty(t, sig)
	assert.True(t, a.Signer.Verify(sig, string(body), "shop-secret"))
}

func TestContextFromWithoutMiddleware(t *testing.T) {
	assert.Nil(t, app.ContextFrom(context.Background()))
}
