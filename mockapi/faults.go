package mockapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Fault replaces one response of a scripted route.
type Fault struct {
	// Delay is waited before responding. The wait ends early when the client
	// gives up, so a Delay past the client timeout produces a client timeout.
	Delay time.Duration
	// Status is the HTTP status to answer with. Zero lets the request through
	// to its handler once Delay has passed.
	Status int
	// Code is the envelope error code; it defaults to Status*100. A 200 Status
	// with a non-zero Code is a failed envelope on a successful response.
	Code int
	// Message is the envelope error message; it defaults to the status text.
	Message string
	// RawBody is written verbatim instead of an envelope.
	RawBody string
}

// Fail answers with status and a failed envelope.
func Fail(status int) Fault {
	return Fault{Status: status}
}

// Slow delays the real response by d.
func Slow(d time.Duration) Fault {
	return Fault{Delay: d}
}

// DomainFailure answers 200 with a failed envelope carrying code and message.
func DomainFailure(code int, message string) Fault {
	return Fault{Status: http.StatusOK, Code: code, Message: message}
}

// Script queues faults for method and path. Each request consumes the next
// fault; once the queue is empty the route behaves normally.
func (s *Server) Script(method, path string, faults ...Fault) {
	key := routeKey(method, path)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[key] = append(s.faults[key], faults...)
}

// Reset drops every scripted fault and the request history.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string][]Fault)
	s.hits = make(map[string]int)
	s.requests = nil
}

// Hits counts requests to method and path, faulted or not.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, path)]
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (s *Server) nextFault(key string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[key]++
	queue := s.faults[key]
	if len(queue) == 0 {
		return Fault{}, false
	}
	f := queue[0]
	s.faults[key] = queue[1:]
	return f, true
}

func (s *Server) faultInjector() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !pause(req.Context(), s.latency) {
				return nil
			}

			f, ok := s.nextFault(routeKey(req.Method, req.URL.Path))
			if !ok {
				return next(c)
			}
			if !pause(req.Context(), f.Delay) {
				return nil
			}

			switch {
			case f.RawBody != "":
				status := f.Status
				if status == 0 {
					status = http.StatusOK
				}
				return c.Blob(status, echo.MIMEApplicationJSON, []byte(f.RawBody))
			case f.Status == 0:
				return next(c)
			default:
				return s.writeFailure(c, f.Status, f.Code, f.Message)
			}
		}
	}
}
