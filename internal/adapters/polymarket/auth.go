package polymarket

// auth.go: autenticación del CLOB.
//
//   L1: la prueba ClobAuth firmada (la produce el order client con su signer)
//       se canjea por credenciales API en GET /auth/derive-api-key.
//   L2: cada request autenticado lleva un HMAC-SHA256 de ts+METHOD+path+body.

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const deriveAPIKeyPath = "/auth/derive-api-key"

// DeriveAPIKey canjea la prueba L1 por credenciales L2.
func (c *Client) DeriveAPIKey(ctx context.Context, auth domain.L1Auth) (domain.APICredentials, error) {
	if err := c.clobLimiter.Wait(ctx); err != nil {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.clobBase+deriveAPIKeyPath, nil)
	if err != nil {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("POLY_ADDRESS", auth.Address)
	req.Header.Set("POLY_SIGNATURE", auth.Signature)
	req.Header.Set("POLY_TIMESTAMP", auth.Timestamp)
	req.Header.Set("POLY_NONCE", auth.Nonce)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: status %d: %s", resp.StatusCode, body)
	}

	var creds domain.APICredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: parse creds: %w", err)
	}
	if creds.APIKey == "" || creds.Secret == "" {
		return domain.APICredentials{}, fmt.Errorf("auth.DeriveAPIKey: empty credentials")
	}
	creds.Address = auth.Address
	return creds, nil
}

// l2Headers devuelve los headers autenticados para un request L2.
// Sin credenciales devuelve nil y el request sale sin firmar.
func l2Headers(creds *domain.APICredentials, method, path, body string, now time.Time) (map[string]string, error) {
	if creds == nil {
		return nil, nil
	}

	ts := strconv.FormatInt(now.Unix(), 10)
	msg := ts + strings.ToUpper(method) + path + body

	secretBytes, err := base64.URLEncoding.DecodeString(creds.Secret)
	if err != nil {
		return nil, fmt.Errorf("auth: decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(msg))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY_ADDRESS":    creds.Address,
		"POLY_SIGNATURE":  sig,
		"POLY_TIMESTAMP":  ts,
		"POLY_API_KEY":    creds.APIKey,
		"POLY_PASSPHRASE": creds.Passphrase,
	}, nil
}

// doL2 ejecuta un request autenticado con rate limiting y retries.
// Los headers HMAC se regeneran en cada intento para que el timestamp no envejezca.
// path es lo que se firma; query se agrega a la URL sin firmar.
func (c *Client) doL2(ctx context.Context, creds *domain.APICredentials, method, path, query string, reqBody, out any) error {
	var bodyStr string
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		bodyStr = string(b)
	}

	if _, err := l2Headers(creds, method, path, bodyStr, time.Now()); err != nil {
		return err
	}

	fullURL := c.clobBase + path
	if query != "" {
		fullURL += "?" + query
	}

	return c.doWithRetry(ctx, c.clobLimiter, func() (*http.Response, error) {
		headers, err := l2Headers(creds, method, path, bodyStr, time.Now())
		if err != nil {
			return nil, err
		}

		var bodyReader io.Reader
		if bodyStr != "" {
			bodyReader = strings.NewReader(bodyStr)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return c.http.Do(req)
	}, out)
}
