package registration

import (
	"crypto/rand"
	"math/big"
)

const (
	shopSecretLength   = 120
	shopSecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// generateShopSecret produces the per-shop symmetric secret established at
// authorize time: 120 alphanumeric characters from crypto/rand.
func generateShopSecret() (string, error) {
	alphabetLen := big.NewInt(int64(len(shopSecretAlphabet)))
	buf := make([]byte, shopSecretLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = shopSecretAlphabet[n.Int64()]
	}
	return string(buf), nil
}
