package resolver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"shopbridge/internal/client"
	"shopbridge/internal/signer"
	"shopbridge/pkg/apperrors"
	"shopbridge/pkg/shop"
)

// Context is the authenticated, request-scoped bundle handed to business
// handlers: the shop, the decoded payload and an outbound client bound to
// that shop. It is built once per request and never partially.
type Context struct {
	Shop    shop.Shop
	Payload map[string]any
	RawBody []byte
	Client  *client.Client
}

// Resolver authenticates inbound requests. It is the security boundary for
// every protected endpoint: a request either yields a full Context or an
// error the adapter turns into a 400-class response.
type Resolver struct {
	repo        shop.Repository
	signer      *signer.Signer
	tokens      client.TokenCache
	httpTimeout time.Duration
}

func New(repo shop.Repository, sig *signer.Signer, tokens client.TokenCache, httpTimeout time.Duration) *Resolver {
	return &Resolver{repo: repo, signer: sig, tokens: tokens, httpTimeout: httpTimeout}
}

func (r *Resolver) clientFor(s shop.Shop) *client.Client {
	var opts []client.Option
	if r.httpTimeout > 0 {
		opts = append(opts, client.WithTimeout(r.httpTimeout))
	}
	return client.New(s, r.tokens, opts...)
}

// FromAPI authenticates a server-to-server webhook call. The body is
// buffered once; the signature is verified over the exact raw bytes with
// the shop's secret.
func (r *Resolver) FromAPI(req *http.Request) (*Context, error) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidRequest)
	}

	var envelope struct {
		Source struct {
			ShopID string `json:"shopId"`
		} `json:"source"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidRequest)
	}
	if envelope.Source.ShopID == "" {
		return nil, apperrors.ErrInvalidRequest
	}

	s, err := r.repo.GetShopByID(req.Context(), envelope.Source.ShopID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknownShop)
	}

	signature := req.Header.Get(signer.ShopSignatureHeader)
	if signature == "" {
		return nil, apperrors.ErrMissingSignatureHeader
	}
	if !r.signer.Verify(signature, string(raw), s.ShopSecret()) {
		return nil, apperrors.ErrInvalidSignature
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidRequest)
	}

	return &Context{Shop: s, Payload: payload, RawBody: raw, Client: r.clientFor(s)}, nil
}

// FromBrowser authenticates a module request from the platform's admin. The
// full query parameter set, signature included, becomes the payload.
func (r *Resolver) FromBrowser(req *http.Request) (*Context, error) {
	shopID := req.URL.Query().Get("shop-id")
	if shopID == "" {
		return nil, apperrors.ErrInvalidRequest
	}

	s, err := r.repo.GetShopByID(req.Context(), shopID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknownShop)
	}

	if err := r.signer.VerifyGetRequest(req, s.ShopSecret()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidSignature)
	}

	payload := map[string]any{}
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}

	return &Context{Shop: s, Payload: payload, Client: r.clientFor(s)}, nil
}
