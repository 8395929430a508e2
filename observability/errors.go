package observability

import "errors"

// Configuration errors returned by Config.Validate and NewProvider.
var (
	ErrNilConfig          = errors.New("observability: nil config")
	ErrMissingServiceName = errors.New("observability: service.name must be set when enabled")
	ErrInvalidSampleRate  = errors.New("observability: trace.samplerate outside [0, 1]")
	ErrInvalidProtocol    = errors.New("observability: protocol must be http or grpc")

	// ErrInvalidEndpointFormat: grpc endpoints are "host:port", http
	// endpoints carry an http:// or https:// scheme.
	ErrInvalidEndpointFormat = errors.New("observability: endpoint does not match protocol")
)
