package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxResponseBytes = 64 << 10

// HTTPOracle checks every configured lock against a key-lookup service:
//
//	GET {BaseURL}/locks/{lock}/keys/{address}
//	200 {"valid": bool, "tokenId": "...", "expiration": unix-seconds}
//	404 no key
//
// Locks are queried concurrently. A lock that fails to answer counts as not held;
// only when every lock fails is [ErrUnavailable] returned.
type HTTPOracle struct {
	baseURL string
	locks   []Lock
	client  *http.Client
}

// NewHTTPOracle creates an oracle for locks. A nil client uses a client with a 5s
// timeout.
func NewHTTPOracle(baseURL string, locks []Lock, client *http.Client) (*HTTPOracle, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid membership oracle url")
	}
	if len(locks) == 0 {
		return nil, fmt.Errorf("no membership locks configured")
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPOracle{
		baseURL: u.String(),
		locks:   append([]Lock(nil), locks...),
		client:  client,
	}, nil
}

type keyResponse struct {
	Valid      bool   `json:"valid"`
	TokenID    string `json:"tokenId"`
	Expiration int64  `json:"expiration"`
}

// Memberships queries each lock for address.
func (o *HTTPOracle) Memberships(ctx context.Context, address string) ([]Membership, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	out := make([]Membership, len(o.locks))
	errs := make([]error, len(o.locks))

	var wg sync.WaitGroup
	for i, lock := range o.locks {
		wg.Add(1)
		go func(i int, lock Lock) {
			defer wg.Done()
			out[i], errs[i] = o.lookup(ctx, lock, address)
		}(i, lock)
	}
	wg.Wait()

	failed := 0
	var last error
	for _, err := range errs {
		if err != nil {
			failed++
			last = err
		}
	}
	if failed == len(o.locks) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, last)
	}
	return out, nil
}

func (o *HTTPOracle) lookup(ctx context.Context, lock Lock, address string) (Membership, error) {
	m := Membership{Name: lock.Name, LockAddress: lock.Address}

	endpoint := o.baseURL + "/locks/" + url.PathEscape(lock.Address) + "/keys/" + url.PathEscape(address)
	var body keyResponse
	status, err := getJSON(ctx, o.client, endpoint, &body)
	if err != nil {
		return m, err
	}
	if status == http.StatusNotFound {
		return m, nil
	}

	m.TokenID = body.TokenID
	if body.Expiration > 0 {
		m.ExpiresAt = time.Unix(body.Expiration, 0).UTC()
	}
	m.Valid = body.Valid
	return m, nil
}

// HTTPHoldingChecker asks a balance service whether an owner holds a token:
//
//	GET {BaseURL}/chains/{chain}/contracts/{contract}/tokens/{tokenId}/balances/{owner}
//	200 {"balance": "decimal string"}
type HTTPHoldingChecker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPHoldingChecker creates a checker. A nil client uses a client with a 5s timeout.
func NewHTTPHoldingChecker(baseURL string, client *http.Client) (*HTTPHoldingChecker, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid holdings service url")
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPHoldingChecker{baseURL: u.String(), client: client}, nil
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// HoldsToken reports whether h.Owner holds more than zero of the token.
func (c *HTTPHoldingChecker) HoldsToken(ctx context.Context, h Holding) (bool, error) {
	endpoint := c.baseURL +
		"/chains/" + strconv.FormatInt(h.Chain, 10) +
		"/contracts/" + url.PathEscape(strings.ToLower(h.Contract)) +
		"/tokens/" + url.PathEscape(h.TokenID) +
		"/balances/" + url.PathEscape(strings.ToLower(h.Owner))

	var body balanceResponse
	status, err := getJSON(ctx, c.client, endpoint, &body)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == http.StatusNotFound {
		return false, nil
	}

	balance, ok := new(big.Int).SetString(strings.TrimSpace(body.Balance), 10)
	if !ok {
		return false, fmt.Errorf("%w: malformed balance", ErrUnavailable)
	}
	return balance.Sign() > 0, nil
}

// getJSON decodes a 200 response into dst. 404 is returned without error; any other
// status is an error.
func getJSON(ctx context.Context, client *http.Client, endpoint string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return resp.StatusCode, nil
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
