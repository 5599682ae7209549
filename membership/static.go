package membership

import (
	"context"
	"strings"
	"sync"
)

// StaticOracle serves memberships from memory. Addresses are matched
// case-insensitively. It is intended for tests and local development.
type StaticOracle struct {
	mu      sync.RWMutex
	members map[string][]Membership
	err     error
	calls   int
}

// NewStaticOracle returns an empty oracle; every address has no memberships.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{members: make(map[string][]Membership)}
}

// Set replaces the memberships of address.
func (o *StaticOracle) Set(address string, ms ...Membership) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.members[strings.ToLower(address)] = append([]Membership(nil), ms...)
}

// Grant gives address one valid membership.
func (o *StaticOracle) Grant(address string) {
	o.Set(address, Membership{Name: "static", Valid: true})
}

// FailWith makes every call return err. A nil err restores normal answers.
func (o *StaticOracle) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Calls returns the number of Memberships calls served.
func (o *StaticOracle) Calls() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.calls
}

// Memberships implements [Oracle].
func (o *StaticOracle) Memberships(ctx context.Context, address string) ([]Membership, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.err != nil {
		return nil, o.err
	}
	return append([]Membership(nil), o.members[strings.ToLower(address)]...), nil
}

// StaticHoldings answers [HoldingChecker] queries from memory.
type StaticHoldings struct {
	mu   sync.RWMutex
	held map[Holding]bool
	err  error
}

// NewStaticHoldings returns a checker where nothing is held.
func NewStaticHoldings() *StaticHoldings {
	return &StaticHoldings{held: make(map[Holding]bool)}
}

// Give records that h.Owner holds the token.
func (s *StaticHoldings) Give(h Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[normalizeHolding(h)] = true
}

// FailWith makes every call return err.
func (s *StaticHoldings) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// HoldsToken implements [HoldingChecker].
func (s *StaticHoldings) HoldsToken(ctx context.Context, h Holding) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.err != nil {
		return false, s.err
	}
	return s.held[normalizeHolding(h)], nil
}

func normalizeHolding(h Holding) Holding {
	h.Contract = strings.ToLower(h.Contract)
	h.Owner = strings.ToLower(h.Owner)
	return h
}
