package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
)

func signParams(params map[string]string, secret string) string {
	// mirrors Shopify's signing: sorted k=v pairs joined with &
	message := ""
	for _, k := range []string{"code", "shop", "state", "timestamp"} {
		if v, ok := params[k]; ok {
			if message != "" {
				message += "&"
			}
			message += k + "=" + v
		}
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	secret := "shhh-app-secret"
	params := map[string]string{
		"code":      "abc123",
		"shop":      "example.myshopify.com",
		"state":     "nonce-1",
		"timestamp": "1700000000",
	}
	params["hmac"] = signParams(params, secret)

	assert.True(t, VerifyHMAC(params, secret))
}

func TestVerifyHMACRejectsTampering(t *testing.T) {
	secret := "shhh-app-secret"
	params := map[string]string{
		"code":      "abc123",
		"shop":      "example.myshopify.com",
		"state":     "nonce-1",
		"timestamp": "1700000000",
	}
	params["hmac"] = signParams(params, secret)
	params["shop"] = "evil.myshopify.com"

	assert.False(t, VerifyHMAC(params, secret))
}

func TestVerifyHMACMissing(t *testing.T) {
	assert.False(t, VerifyHMAC(map[string]string{"shop": "x.myshopify.com"}, "secret"))
}

func TestIsValidShopDomain(t *testing.T) {
	assert.True(t, IsValidShopDomain("my-store.myshopify.com"))
	assert.False(t, IsValidShopDomain("my-store.example.com"))
	assert.False(t, IsValidShopDomain("https://my-store.myshopify.com"))
	assert.False(t, IsValidShopDomain(""))
}

func TestNormalizeShop(t *testing.T) {
	assert.Equal(t, "my-store.myshopify.com", NormalizeShop("https://My-Store.myshopify.com/"))
	assert.Equal(t, "my-store.myshopify.com", NormalizeShop("my-store.myshopify.com/"))
}

func TestAuthorizeURL(t *testing.T) {
	cfg := config.ShopifyConfig{
		APIKey: "key123",
		Scopes: "read_products,write_products",
		AppURL: "https://app.example.com",
	}
	u := AuthorizeURL(cfg, "my-store.myshopify.com", "state-1")

	assert.Contains(t, u, "https://my-store.myshopify.com/admin/oauth/authorize")
	assert.Contains(t, u, "client_id=key123")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "redirect_uri=https%3A%2F%2Fapp.example.com%2Fauth%2Fcallback")
}
