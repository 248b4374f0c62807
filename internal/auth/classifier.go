// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"net/http"
)

// InternalAuthHeader carries the shared secret identifying service-to-
// service traffic.
const InternalAuthHeader = "X-Internal-Auth"

// InternalClassifier decides whether a request is trusted internal
// service-to-service traffic.
type InternalClassifier struct {
	secret string
}

// NewInternalClassifier creates a classifier for the configured shared
// secret. A blank secret disables the bypass permanently: staying secure
// requires no operator action.
func NewInternalClassifier(secret string) *InternalClassifier {
	return &InternalClassifier{secret: secret}
}

// Enabled reports whether the internal bypass is configured at all.
func (c *InternalClassifier) Enabled() bool {
	return c.secret != ""
}

// IsInternal reports whether the request carries the exact shared secret.
// The comparison is exact string equality: no trimming, no case folding.
func (c *InternalClassifier) IsInternal(r *http.Request) bool {
	if c.secret == "" {
		return false
	}
	return r.Header.Get(InternalAuthHeader) == c.secret
}
