// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Package auth implements the request authentication pipeline: internal
// call classification, credential extraction, token validation, identity
// resolution and CSRF enforcement.
package auth

import (
	"net/http"

	"github.com/castellan/castellan/internal/logging"
)

// stageOutcome tells the pipeline what to do after a stage ran.
type stageOutcome int

const (
	// stageContinue evaluates the next stage.
	stageContinue stageOutcome = iota

	// stageForward skips the remaining stages and forwards to the
	// handler chain. Used by the internal bypass, which must pay for
	// neither token validation nor CSRF.
	stageForward

	// stageReject means the stage already wrote a rejection response.
	stageReject
)

// stage is one step of the pipeline. It may attach values to the request
// context and returns the (possibly re-contexted) request plus an outcome.
type stage struct {
	name string
	run  func(w http.ResponseWriter, r *http.Request) (*http.Request, stageOutcome)
}

// Gateway is the top-level policy router: an ordered list of stages
// evaluated top-down with first-terminal-outcome-wins semantics. The order
// is fixed and significant: internal classification runs before any token
// work, so an internal-tagged request is never subject to token validation
// or CSRF checks.
type Gateway struct {
	classifier *InternalClassifier
	extractor  *CredentialExtractor
	tokens     *TokenManager
	resolver   *IdentityResolver
	csrf       *CSRFPolicy

	stages []stage
}

// NewGateway assembles the pipeline from its components.
func NewGateway(classifier *InternalClassifier, extractor *CredentialExtractor, tokens *TokenManager, resolver *IdentityResolver, csrf *CSRFPolicy) *Gateway {
	g := &Gateway{
		classifier: classifier,
		extractor:  extractor,
		tokens:     tokens,
		resolver:   resolver,
		csrf:       csrf,
	}
	g.stages = []stage{
		{name: "internal_classification", run: g.classifyInternal},
		{name: "authentication", run: g.authenticate},
		{name: "csrf", run: g.enforceCSRF},
	}
	return g
}

// Handler returns the gateway as chi-compatible middleware. Every request
// leaves it either rejected (403 CSRF) or carrying a SecurityDecision in
// its context for the path authorization middleware and handlers.
func (g *Gateway) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, st := range g.stages {
			var outcome stageOutcome
			r, outcome = st.run(w, r)
			switch outcome {
			case stageForward:
				next.ServeHTTP(w, r)
				return
			case stageReject:
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// classifyInternal short-circuits the pipeline for requests carrying the
// internal shared secret.
func (g *Gateway) classifyInternal(_ http.ResponseWriter, r *http.Request) (*http.Request, stageOutcome) {
	if !g.classifier.IsInternal(r) {
		return r, stageContinue
	}

	RecordGatewayDecision(DecisionInternalBypass)
	decision := &SecurityDecision{Kind: DecisionInternalBypass}
	return r.WithContext(ContextWithDecision(r.Context(), decision)), stageForward
}

// authenticate extracts and validates the bearer credential and resolves an
// identity. Any validation failure yields an anonymous decision rather than
// an error response: the caller cannot distinguish a forged token from no
// token at all. Rejection, if any, happens later at path authorization.
func (g *Gateway) authenticate(_ http.ResponseWriter, r *http.Request) (*http.Request, stageOutcome) {
	decision := &SecurityDecision{Kind: DecisionAnonymous}

	if credential := g.extractor.Extract(r); credential != "" {
		result := g.tokens.Validate(credential)
		RecordTokenValidation(result.Status)

		if result.Status == TokenValid {
			identity := g.resolver.Resolve(r.Context(), result.Subject, result.Roles)
			decision = &SecurityDecision{Kind: DecisionAuthenticated, Identity: identity}
		} else {
			logging.Ctx(r.Context()).Debug().
				Str("status", result.Status.String()).
				Msg("Token validation failed, continuing as anonymous")
		}
	}

	RecordGatewayDecision(decision.Kind)
	return r.WithContext(ContextWithDecision(r.Context(), decision)), stageContinue
}

// enforceCSRF applies the CSRF policy. Safe requests get a token cookie
// issued; protected mutating requests that fail the double-submit check are
// rejected with 403, no retry, no fallback.
func (g *Gateway) enforceCSRF(w http.ResponseWriter, r *http.Request) (*http.Request, stageOutcome) {
	if !g.csrf.RequiresValidation(r.Method, r.URL.Path, HasAuthorizationHeader(r)) {
		if _, safe := safeMethods[r.Method]; safe {
			g.csrf.EnsureToken(w, r)
		}
		return r, stageContinue
	}

	if err := g.csrf.Validate(r); err != nil {
		RecordCSRFRejection()
		logging.Ctx(r.Context()).Warn().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("CSRF validation failed")
		http.Error(w, "Forbidden: CSRF validation failed", http.StatusForbidden)
		return r, stageReject
	}

	return r, stageContinue
}
