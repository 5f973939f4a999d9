// Package gateway implements the venue Gateway: a signed REST client
// (HMAC-SHA256 over timestamp+method+path+body, base64-encoded, sent as
// headers alongside a base64 passphrase digest and key version), a
// token-bucket rate limiter, a failure-counting circuit breaker, and a
// reconnecting WebSocket client with exponential backoff and subscription
// replay (spec §4.1, §6). Grounded on the teacher's execution_service.go
// REST calls and hub.go's WS plumbing; the signer's header/digest shape is
// the specification's own scheme (the teacher signs through the
// go-binance/v2/futures SDK, which hides the HMAC step the specification
// requires exposing for a from-scratch signed client).
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Credentials holds the venue API key material (spec §3's "signed
// requests" surface: api-key, secret, optional passphrase, key version).
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
	KeyVersion string
}

// RESTClient is a minimal signed HTTP client for the venue's REST API.
type RESTClient struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	recvWindow time.Duration
}

func NewRESTClient(baseURL string, creds Credentials) *RESTClient {
	return &RESTClient{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		recvWindow: 5 * time.Second,
	}
}

// sign computes the spec §6 request signature: base64(HMAC-SHA256(secret,
// timestamp+method+path+canonicalBody)).
func (c *RESTClient) sign(timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	_, _ = io.WriteString(mac, timestamp+method+path+body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// passphraseDigest returns base64(HMAC-SHA256(secret, passphrase)) so the
// plaintext passphrase is never put on the wire, per spec §6.
func (c *RESTClient) passphraseDigest() string {
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	_, _ = io.WriteString(mac, c.creds.Passphrase)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *RESTClient) authHeaders(req *http.Request, timestamp, method, path, body string) {
	req.Header.Set("API-KEY", c.creds.APIKey)
	req.Header.Set("API-TIMESTAMP", timestamp)
	req.Header.Set("API-SIGNATURE", c.sign(timestamp, method, path, body))
	req.Header.Set("API-RECV-WINDOW", strconv.FormatInt(c.recvWindow.Milliseconds(), 10))
	if c.creds.Passphrase != "" {
		req.Header.Set("API-PASSPHRASE", c.passphraseDigest())
	}
	if c.creds.KeyVersion != "" {
		req.Header.Set("API-KEY-VERSION", c.creds.KeyVersion)
	}
}

// Get issues a signed GET request, returning the raw response body. The
// query string is folded into the signed request path, per spec §6's
// timestamp+method+path+body construction (body is empty for a GET).
func (c *RESTClient) Get(path string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	requestPath := path
	if encoded := q.Encode(); encoded != "" {
		requestPath = path + "?" + encoded
	}
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	req, err := http.NewRequest(http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return nil, err
	}
	c.authHeaders(req, timestamp, http.MethodGet, requestPath, "")
	return c.do(req)
}

// Post issues a signed POST request with a form-encoded body, signing over
// that same body so the signature is bound to exactly what is sent.
func (c *RESTClient) Post(path string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	body := q.Encode()
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authHeaders(req, timestamp, http.MethodPost, path, body)
	return c.do(req)
}

func (c *RESTClient) do(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("venue %s %s: %d %s", req.Method, req.URL.Path, res.StatusCode, string(respBody))
	}
	return respBody, nil
}
