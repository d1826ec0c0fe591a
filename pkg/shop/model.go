package shop

// Shop is the authenticated identity a request acts on behalf of. Storage
// adapters may return their own implementation; the protocol engine only
// goes through this interface.
type Shop interface {
	ShopID() string
	ShopURL() string
	ShopSecret() string
	// ClientID and ClientSecret are empty until the handshake is confirmed.
	ClientID() string
	ClientSecret() string
	// SetCredentials stores the OAuth client credentials issued during
	// confirmation. Both values are set together, never individually.
	SetCredentials(clientID, clientSecret string)
	Active() bool
	SetActive(active bool)
}

// SimpleShop is the default Shop implementation used by the bundled
// repositories.
type SimpleShop struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Secret      string `json:"secret"`
	OAuthID     string `json:"clientId,omitempty"`
	OAuthSecret string `json:"clientSecret,omitempty"`
	IsActive    bool   `json:"active"`
}

// NewSimpleShop creates an inactive shop without OAuth credentials.
func NewSimpleShop(id, url, secret string) *SimpleShop {
	return &SimpleShop{ID: id, URL: url, Secret: secret}
}

func (s *SimpleShop) ShopID() string       { return s.ID }
func (s *SimpleShop) ShopURL() string      { return s.URL }
func (s *SimpleShop) ShopSecret() string   { return s.Secret }
func (s *SimpleShop) ClientID() string     { return s.OAuthID }
func (s *SimpleShop) ClientSecret() string { return s.OAuthSecret }

func (s *SimpleShop) SetCredentials(clientID, clientSecret string) {
	s.OAuthID = clientID
	s.OAuthSecret = clientSecret
}

func (s *SimpleShop) Active() bool          { return s.IsActive }
func (s *SimpleShop) SetActive(active bool) { s.IsActive = active }
