// Package bufpool provides reusable copy buffers for file transfers.
//
// Local copies and network downloads both move data through io.CopyBuffer
// loops; pooling the buffers keeps a batch of parallel transfers from
// allocating a fresh slab per file. Two size classes cover the workloads:
// a 64KB class for local file copies and a 1MB class for streaming
// network payloads.
//
// All operations are safe for concurrent use.
package bufpool

import (
	"io"
	"sync"
)

const (
	// CopySize is the buffer size used for local file copies (64KB).
	CopySize = 64 << 10

	// StreamSize is the buffer size used for network streaming (1MB).
	StreamSize = 1 << 20
)

var (
	copyPool = sync.Pool{
		New: func() any {
			b := make([]byte, CopySize)
			return &b
		},
	}
	streamPool = sync.Pool{
		New: func() any {
			b := make([]byte, StreamSize)
			return &b
		},
	}
)

// Copy copies src to dst through a pooled 64KB buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := copyPool.Get().(*[]byte)
	defer copyPool.Put(buf)
	return io.CopyBuffer(dst, onlyReader{src}, *buf)
}

// Stream copies src to dst through a pooled 1MB buffer, sized for
// network payloads.
func Stream(dst io.Writer, src io.Reader) (int64, error) {
	buf := streamPool.Get().(*[]byte)
	defer streamPool.Put(buf)
	return io.CopyBuffer(dst, onlyReader{src}, *buf)
}

// onlyReader hides ReadFrom/WriteTo so io.CopyBuffer actually uses the
// provided buffer instead of delegating.
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }
