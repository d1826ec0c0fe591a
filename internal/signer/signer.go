package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// SignatureHeader carries the HMAC over outbound response bodies and over
// the registration request's canonical query string.
const SignatureHeader = "shopware-app-signature"

// ShopSignatureHeader carries the HMAC the shop computes over request bodies
// with its own secret. The same name is used as a query parameter on signed
// GET requests.
const ShopSignatureHeader = "shopware-shop-signature"

var (
	ErrMissingSignatureParam = errors.New("missing shopware-shop-signature query parameter")
	ErrMissingQueryParams    = errors.New("missing query parameters to verify the GET request")
	ErrInvalidSignature      = errors.New("invalid signature")
)

// Signer computes and checks HMAC-SHA256 message authentication codes.
// Keyed hash instances are pooled per distinct secret for the signer's
// lifetime; pools are cheap to rebuild so the cache is populated without
// coordination beyond the map lock.
type Signer struct {
	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

func New() *Signer {
	return &Signer{pools: map[string]*sync.Pool{}}
}

func (s *Signer) poolFor(secret string) *sync.Pool {
	s.mu.RLock()
	p, ok := s.pools[secret]
	s.mu.RUnlock()
	if ok {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pools[secret]; ok {
		return p
	}
	p = &sync.Pool{New: func() any {
		return hmac.New(sha256.New, []byte(secret))
	}}
	s.pools[secret] = p
	return p
}

// Sign returns the lowercase-hex HMAC-SHA256 of message under secret.
func (s *Signer) Sign(message, secret string) string {
	pool := s.poolFor(secret)
	h := pool.Get().(hash.Hash)
	h.Reset()
	h.Write([]byte(message))
	mac := h.Sum(nil)
	pool.Put(h)
	return hex.EncodeToString(mac)
}

// Verify checks signature against the expected MAC in constant time.
func (s *Signer) Verify(signature, message, secret string) bool {
	expected := s.Sign(message, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignResponse computes the signature over the full response body and sets
// it on the given header. Callers pass the buffered body bytes before
// writing them, so nothing is consumed.
func (s *Signer) SignResponse(header http.Header, body []byte, secret string) {
	header.Set(SignatureHeader, s.Sign(string(body), secret))
}

// VerifyGetRequest reconstructs the canonical query string of a signed GET
// request and verifies it. All parameters except the signature itself are
// kept in their original order, each value URL-decoded, joined by "&".
func (s *Signer) VerifyGetRequest(req *http.Request, secret string) error {
	rawQuery := req.URL.RawQuery

	signature := req.URL.Query().Get(ShopSignatureHeader)
	if signature == "" {
		return ErrMissingSignatureParam
	}

	var parts []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if decodedKey == ShopSignatureHeader {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		parts = append(parts, decodedKey+"="+decodedValue)
	}

	if len(parts) == 0 {
		return ErrMissingQueryParams
	}

	if !s.Verify(signature, strings.Join(parts, "&"), secret) {
		return ErrInvalidSignature
	}
	return nil
}
