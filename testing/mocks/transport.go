package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	qyhttp "github.com/qyquant/qyquant-client/http"
)

// MockTransport provides a testify-based mock implementation of the
// http.Transport interface.
//
// Example usage:
//
//	tr := &mocks.MockTransport{}
//	tr.ExpectCall(qyhttp.MethodGet, "/health", resp, nil).Once()
//	client, _ := qyhttp.NewClient(cfg, log, qyhttp.WithTransport(tr))
type MockTransport struct {
	mock.Mock
}

// Attempt implements http.Transport
func (m *MockTransport) Attempt(ctx context.Context, req *qyhttp.Request) (*qyhttp.Response, error) {
	args := m.Called(ctx, req)
	var resp *qyhttp.Response
	if r := args.Get(0); r != nil {
		resp = r.(*qyhttp.Response)
	}
	return resp, args.Error(1)
}

// ExpectCall sets up an expectation for one method and path. The returned
// call can be narrowed further with Once, Times or Run.
func (m *MockTransport) ExpectCall(method qyhttp.Method, path string, resp *qyhttp.Response, err error) *mock.Call {
	return m.On("Attempt", mock.Anything, MatchRequest(method, path)).Return(resp, err)
}

// ExpectAny sets up an expectation matching every request.
func (m *MockTransport) ExpectAny(resp *qyhttp.Response, err error) *mock.Call {
	return m.On("Attempt", mock.Anything, mock.Anything).Return(resp, err)
}

// Requests returns the requests seen so far, in order.
func (m *MockTransport) Requests() []*qyhttp.Request {
	var out []*qyhttp.Request
	for _, call := range m.Calls {
		if req, ok := call.Arguments.Get(1).(*qyhttp.Request); ok {
			out = append(out, req)
		}
	}
	return out
}

// MatchRequest is an argument matcher for requests with the given method and path.
func MatchRequest(method qyhttp.Method, path string) any {
	return mock.MatchedBy(func(req *qyhttp.Request) bool {
		return req != nil && req.Method == method && req.Path == path
	})
}

// MockClock provides a testify-based mock implementation of the http.Clock
// interface. Sleep returns immediately with the configured error.
type MockClock struct {
	mock.Mock
}

// Sleep implements http.Clock
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// ExpectSleep sets up an expectation for a wait of exactly d.
func (m *MockClock) ExpectSleep(d time.Duration, err error) *mock.Call {
	return m.On("Sleep", mock.Anything, d).Return(err)
}
