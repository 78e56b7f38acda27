package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// IsValidShopDomain reports whether shop looks like a *.myshopify.com domain.
func IsValidShopDomain(shop string) bool {
	return shopDomainRe.MatchString(shop)
}

// NormalizeShop cleans up a shop parameter as received in query strings:
// lowercases, strips scheme and trailing slashes.
func NormalizeShop(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if idx := strings.Index(shop, "//"); idx >= 0 {
		shop = shop[idx+2:]
	}
	return strings.TrimSuffix(shop, "/")
}

// AuthorizeURL builds the Shopify OAuth authorize URL for an offline token.
func AuthorizeURL(cfg config.ShopifyConfig, shop, state string) string {
	u := url.URL{
		Scheme: "https",
		Host:   shop,
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", cfg.APIKey)
	q.Set("scope", cfg.Scopes)
	q.Set("redirect_uri", cfg.AppURL+"/auth/callback")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// VerifyHMAC checks the hmac query parameter of an OAuth callback against
// the app secret. The hmac and signature parameters are excluded from the
// signed message; remaining parameters are sorted and joined k=v with &.
func VerifyHMAC(params map[string]string, secret string) bool {
	provided, ok := params["hmac"]
	if !ok || provided == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	message := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}

// AccessTokenResponse is Shopify's answer to the code exchange.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCode swaps an OAuth authorization code for an offline access token.
func ExchangeCode(ctx context.Context, cfg config.ShopifyConfig, shop, code string) (*AccessTokenResponse, error) {
	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

	reqBody, err := json.Marshal(map[string]string{
		"client_id":     cfg.APIKey,
		"client_secret": cfg.APISecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var tok AccessTokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("invalid token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tok, nil
}
