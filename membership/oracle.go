package membership

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable is returned when no membership source could be reached.
var ErrUnavailable = errors.New("membership source unavailable")

// Membership is one lock the address was checked against.
type Membership struct {
	Name        string    `json:"name"`
	LockAddress string    `json:"lockAddress"`
	Valid       bool      `json:"valid"`
	TokenID     string    `json:"tokenId,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// Oracle reports the memberships held by an address. Results may be stale.
type Oracle interface {
	Memberships(ctx context.Context, address string) ([]Membership, error)
}

// OracleFunc adapts a function to [Oracle].
type OracleFunc func(ctx context.Context, address string) ([]Membership, error)

// Memberships calls f.
func (f OracleFunc) Memberships(ctx context.Context, address string) ([]Membership, error) {
	return f(ctx, address)
}

// HasValid reports whether any membership in ms is valid.
func HasValid(ms []Membership) bool {
	for _, m := range ms {
		if m.Valid {
			return true
		}
	}
	return false
}

// Holding identifies one token balance on one chain.
type Holding struct {
	Chain    int64
	Contract string
	TokenID  string
	Owner    string
}

// HoldingChecker reports whether an owner holds a positive balance of a token.
type HoldingChecker interface {
	HoldsToken(ctx context.Context, h Holding) (bool, error)
}

// Lock is a membership contract an [HTTPOracle] checks.
type Lock struct {
	Name    string
	Address string
}

// ParseLocks parses "name=0xaddr,name2=0xaddr2". A bare address is named after itself.
func ParseLocks(list string) ([]Lock, error) {
	var locks []Lock
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, addr, found := strings.Cut(part, "=")
		if !found {
			addr = name
		}
		name, addr = strings.TrimSpace(name), strings.TrimSpace(addr)
		if addr == "" {
			return nil, errors.New("membership lock address is empty")
		}
		locks = append(locks, Lock{Name: name, Address: strings.ToLower(addr)})
	}
	if len(locks) == 0 {
		return nil, errors.New("no membership locks configured")
	}
	return locks, nil
}
