// Package testing provides test doubles for code built on the qyquant API
// client.
//
// # Mocks
//
// The mocks subpackage provides testify-based mock implementations of the
// client's seams:
//   - Transport (http.Transport), the single-attempt network layer
//   - Clock (http.Clock), the backoff timer
//
// # Fixtures
//
// The fixtures subpackage provides pre-configured mocks for common
// scenarios (healthy, flaky, unreachable API) and builders for envelope
// bodies in both dialects.
//
// # Usage
//
//	import (
//		"github.com/qyquant/qyquant-client/testing/mocks"
//		"github.com/qyquant/qyquant-client/testing/fixtures"
//	)
//
// Integration tests that need a real HTTP server should use the mockapi
// package instead.
package testing
