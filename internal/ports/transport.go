package ports

import "context"

// Transport is a bidirectional text socket carrying JSON frames.
//
// Open dials url and starts delivering frames. onMessage is called once per
// inbound frame, never concurrently, in wire order. onClose is called once
// when the socket dies, including after Close.
type Transport interface {
	Open(ctx context.Context, url string, onMessage func([]byte), onClose func(error)) error

	// Send writes one text frame.
	Send(payload []byte) error

	// Close tears down the socket. Calling it on a closed transport is a no-op.
	Close() error
}
