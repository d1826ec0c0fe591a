package resolver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbridge/internal/client"
	"shopbridge/internal/resolver"
	"shopbridge/internal/signer"
	"shopbridge/pkg/apperrors"
	"shopbridge/pkg/shop"
)

const shopSecret = "per-shop-secret"

func newResolver(t *testing.T) (*resolver.Resolver, *signer.Signer, shop.Repository) {
	t.Helper()
	sig := signer.New()
	repo := shop.NewMemoryRepository()
	require.NoError(t, repo.CreateShop(context.Background(), "shop-1", "https://shop.test", shopSecret))
	return resolver.New(repo, sig, client.NewMemoryTokenCache(), 0), sig, repo
}

func signedWebhook(t *testing.T, sig *signer.Signer, payload map[string]any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader(raw))
	req.Header.Set(signer.ShopSignatureHeader, sig.Sign(string(raw), shopSecret))
	return req
}

func TestFromAPI(t *testing.T) {
	res, sig, _ := newResolver(t)

	req := signedWebhook(t, sig, map[string]any{
		"source": map[string]any{"shopId": "shop-1", "url": "https://shop.test", "appVersion": "2.0.0"},
		"meta":   map[string]any{"timestamp": 1700000000},
	})

	ctx, err := res.FromAPI(req)
	require.NoError(t, err)
	assert.Equal(t, "shop-1", ctx.Shop.ShopID())
	assert.NotNil(t, ctx.Client)
	source := ctx.Payload["source"].(map[string]any)
	assert.Equal(t, "2.0.0", source["appVersion"])
}

func TestFromAPITamperedBody(t *testing.T) {
	res, sig, _ := newResolver(t)

	raw := []byte(`{"source":{"shopId":"shop-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader(bytes.Replace(raw, []byte("shop-1"), []byte("shop-2"), 1)))
	req.Header.Set(signer.ShopSignatureHeader, sig.Sign(string(raw), shopSecret))

	// The tampered body points at an unknown shop; either way no Context
	// may be produced.
	_, err := res.FromAPI(req)
	require.Error(t, err)
}

func TestFromAPISignatureOverExactBytes(t *testing.T) {
	res, sig, _ := newResolver(t)

	raw := []byte(`{"source":{"shopId":"shop-1"},"data":{"payload":{}}}`)
	tampered := bytes.Replace(raw, []byte(`{}`), []byte(`{"x":1}`), 1)
	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader(tampered))
	req.Header.Set(signer.ShopSignatureHeader, sig.Sign(string(raw), shopSecret))

	_, err := res.FromAPI(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 401, svcErr.Status)
}

func TestFromAPIMissingSignatureHeader(t *testing.T) {
	res, _, _ := newResolver(t)

	raw := []byte(`{"source":{"shopId":"shop-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader(raw))

	_, err := res.FromAPI(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 400, svcErr.Status)
}

func TestFromAPIUnknownShop(t *testing.T) {
	res, sig, _ := newResolver(t)

	raw := []byte(`{"source":{"shopId":"ghost"}}`)
	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader(raw))
	req.Header.Set(signer.ShopSignatureHeader, sig.Sign(string(raw), shopSecret))

	_, err := res.FromAPI(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 401, svcErr.Status)
	assert.ErrorIs(t, err, shop.ErrNotFound)
}

func TestFromAPIMalformedJSON(t *testing.T) {
	res, _, _ := newResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/app/install", bytes.NewReader([]byte(`{not json`)))

	_, err := res.FromAPI(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 400, svcErr.Status)
}

func TestFromBrowser(t *testing.T) {
	res, sig, _ := newResolver(t)

	signature := sig.Sign("shop-id=shop-1&location-id=module", shopSecret)
	req := httptest.NewRequest(http.MethodGet, "/module?shop-id=shop-1&location-id=module&shopware-shop-signature="+signature, nil)

	ctx, err := res.FromBrowser(req)
	require.NoError(t, err)
	assert.Equal(t, "shop-1", ctx.Shop.ShopID())
	// The full parameter set, signature included, becomes the payload.
	assert.Equal(t, "module", ctx.Payload["location-id"])
	assert.Equal(t, signature, ctx.Payload["shopware-shop-signature"])
}

func TestFromBrowserMissingShopID(t *testing.T) {
	res, _, _ := newResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/module?location-id=module", nil)

	_, err := res.FromBrowser(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 400, svcErr.Status)
}

func TestFromBrowserBadSignature(t *testing.T) {
	res, _, _ := newResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/module?shop-id=shop-1&shopware-shop-signature=deadbeef", nil)

	_, err := res.FromBrowser(req)
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 401, svcErr.Status)
}
