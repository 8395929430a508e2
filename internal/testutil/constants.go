// Package testutil provides shared constants and utilities for testing across qyquant-client.
package testutil

// Test Error Messages
//
// These constants define common error messages used in test assertions.

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"
)

// Test Host Configuration

const (
	// TestBaseURL is the API root used by client tests that never dial out.
	TestBaseURL = "http://localhost:5000/api"
)

// Test Session Values

const (
	// TestToken is a bearer token stored in test sessions.
	TestToken = "test-token"

	// TestEmail is the demo account used against the mock API.
	TestEmail = "demo@qyquant.io"

	// TestPassword is the demo account password.
	TestPassword = "demo123"
)
