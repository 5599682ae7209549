package accesskey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind names the policy family a [Context] belongs to.
type Kind string

// KindTokenGate gates access on holding a specific token.
const KindTokenGate Kind = "token-gate"

// TokenGateRules are the rules of a [KindTokenGate] context.
type TokenGateRules struct {
	Chain           int64  `json:"chain"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	CreatorAddress  string `json:"creatorAddress"`
}

// Complete reports whether every rule field is set.
func (r TokenGateRules) Complete() bool {
	return r.Chain != 0 &&
		strings.TrimSpace(r.ContractAddress) != "" &&
		strings.TrimSpace(r.TokenID) != "" &&
		strings.TrimSpace(r.CreatorAddress) != ""
}

// Context is the policy payload bound into an access key. Known kinds carry typed
// rules; any other kind carries its rules as raw JSON.
type Context struct {
	Kind      Kind
	TokenGate *TokenGateRules
	Opaque    json.RawMessage
}

// TokenGate builds a [KindTokenGate] context.
func TokenGate(rules TokenGateRules) Context {
	return Context{Kind: KindTokenGate, TokenGate: &rules}
}

// Opaque builds a context of an arbitrary kind with caller-defined rules.
func Opaque(kind string, rules json.RawMessage) Context {
	return Context{Kind: Kind(kind), Opaque: rules}
}

type wireContext struct {
	Type  Kind            `json:"type"`
	Rules json.RawMessage `json:"rules"`
}

// MarshalJSON encodes the context as {"type":..., "rules":...}.
func (c Context) MarshalJSON() ([]byte, error) {
	rules, err := c.rulesJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireContext{Type: c.Kind, Rules: rules})
}

// UnmarshalJSON decodes {"type":..., "rules":...}, typing the rules of known kinds.
func (c *Context) UnmarshalJSON(data []byte) error {
	var w wireContext
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidContext)
	}

	switch w.Type {
	case KindTokenGate:
		var rules TokenGateRules
		if len(w.Rules) > 0 {
			if err := json.Unmarshal(w.Rules, &rules); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidContext, err)
			}
		}
		*c = TokenGate(rules)
	default:
		*c = Opaque(string(w.Type), append(json.RawMessage(nil), w.Rules...))
	}
	return nil
}

func (c Context) rulesJSON() (json.RawMessage, error) {
	if c.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalidContext)
	}
	if !utf8.ValidString(string(c.Kind)) {
		return nil, fmt.Errorf("%w: kind is not valid UTF-8", ErrInvalidContext)
	}

	switch c.Kind {
	case KindTokenGate:
		if c.TokenGate == nil {
			return nil, fmt.Errorf("%w: token-gate context without rules", ErrInvalidContext)
		}
		r := c.TokenGate
		if !utf8.ValidString(r.ContractAddress) || !utf8.ValidString(r.TokenID) || !utf8.ValidString(r.CreatorAddress) {
			return nil, fmt.Errorf("%w: rules are not valid UTF-8", ErrInvalidContext)
		}
		return json.Marshal(r)
	default:
		raw := bytes.TrimSpace(c.Opaque)
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: opaque rules are not valid UTF-8", ErrInvalidContext)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: opaque rules are not valid JSON", ErrInvalidContext)
		}
		return json.RawMessage(raw), nil
	}
}
