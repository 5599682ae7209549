package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/playgate"
	"github.com/MrEthical07/playgate/accesskey"
)

type signRequest struct {
	PlaybackID  string `json:"playbackId"`
	UserAddress string `json:"userAddress"`
}

func (s *server) signJWT(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgConfiguration})
		return
	}

	var req signRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	grant, err := s.engine.IssuePlaybackAuthorization(r.Context(), playgate.PlaybackRequest{
		PlaybackID:  strings.TrimSpace(req.PlaybackID),
		UserAddress: strings.TrimSpace(req.UserAddress),
		ClientAddr:  ClientIP(r, s.trustProxy),
	})
	if err != nil {
		s.logFailure(r, "sign-jwt", err)
		writeDecisionFromError(w, err, s.engine.Now())
		writeJSON(w, StatusCode(err), messageResponse{Message: playbackMessage(err)})
		return
	}

	writeRateLimitHeaders(w, grant.RateLimit, s.engine.Now())
	writeJSON(w, http.StatusOK, tokenResponse{Token: grant.Token})
}

func (s *server) issueTokenGateKey(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeJSON(w, http.StatusBadRequest, gateResponse{Message: msgMissingFields})
		return
	}
	chain, err := strconv.ParseInt(q.Get("chain"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, gateResponse{Message: msgMissingFields})
		return
	}

	key, err := s.engine.IssueTokenGateKey(r.Context(), address, accesskey.TokenGateRules{
		Chain:           chain,
		ContractAddress: q.Get("contractAddress"),
		TokenID:         q.Get("tokenId"),
		CreatorAddress:  q.Get("creatorAddress"),
	})
	if err != nil {
		s.logFailure(r, "token-gate", err)
		writeJSON(w, StatusCode(err), gateResponse{Message: genericMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, gateResponse{Allowed: true, AccessKey: key})
}

type webhookContext struct {
	Address         string `json:"address"`
	CreatorAddress  string `json:"creatorAddress"`
	TokenID         string `json:"tokenId"`
	ContractAddress string `json:"contractAddress"`
	Chain           int64  `json:"chain"`
}

type webhookPayload struct {
	AccessKey string         `json:"accessKey"`
	Context   webhookContext `json:"context"`
	// Timestamp is epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

func (s *server) authorizeWebhook(w http.ResponseWriter, r *http.Request) {
	var p webhookPayload
	if err := readJSON(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, gateResponse{Message: msgInvalidJSON})
		return
	}

	var ts time.Time
	if p.Timestamp > 0 {
		ts = time.UnixMilli(p.Timestamp)
	}

	allowed, err := s.engine.AuthorizeWebhook(r.Context(), playgate.WebhookRequest{
		AccessKey: p.AccessKey,
		Address:   p.Context.Address,
		Rules: accesskey.TokenGateRules{
			Chain:           p.Context.Chain,
			ContractAddress: p.Context.ContractAddress,
			TokenID:         p.Context.TokenID,
			CreatorAddress:  p.Context.CreatorAddress,
		},
		Timestamp: ts,
	})
	if err != nil {
		s.logFailure(r, "token-gate webhook", err)
		writeJSON(w, StatusCode(err), gateResponse{Message: genericMessage(err)})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, gateResponse{Message: msgAccessDenied})
		return
	}
	writeJSON(w, http.StatusOK, gateResponse{Allowed: true, Message: msgAccessGranted})
}
