// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"net/http/httptest"
	"testing"
)

func TestIsInternal(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{
			name:   "exact match",
			secret: "shared-secret",
			header: "shared-secret",
			want:   true,
		},
		{
			name:   "missing header",
			secret: "shared-secret",
			want:   false,
		},
		{
			name:   "wrong value",
			secret: "shared-secret",
			header: "other",
			want:   false,
		},
		{
			name:   "case differs",
			secret: "shared-secret",
			header: "Shared-Secret",
			want:   false,
		},
		{
			name:   "trailing whitespace differs",
			secret: "shared-secret",
			header: "shared-secret ",
			want:   false,
		},
		{
			name:   "disabled classifier never matches",
			secret: "",
			header: "",
			want:   false,
		},
		{
			name:   "disabled classifier ignores empty header echo",
			secret: "",
			header: "anything",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewInternalClassifier(tt.secret)
			r := httptest.NewRequest("GET", "/internal/job", nil)
			if tt.header != "" {
				r.Header.Set(InternalAuthHeader, tt.header)
			}
			if got := c.IsInternal(r); got != tt.want {
				t.Errorf("IsInternal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifierEnabled(t *testing.T) {
	if NewInternalClassifier("").Enabled() {
		t.Error("classifier with empty secret must be disabled")
	}
	if !NewInternalClassifier("s").Enabled() {
		t.Error("classifier with secret must be enabled")
	}
}
