// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

/*
Package metrics provides Prometheus metrics for HTTP-level observability.

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8443/metrics

Available metrics:
  - http_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status_code
  - http_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - http_active_requests: Active requests (gauge)
  - http_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

The authentication pipeline and authorization layer register their own
metrics in their packages (gateway_* and authz_* series).
*/
package metrics
