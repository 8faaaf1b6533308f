package encryption

import (
	"sync"
)

const defaultBufferSize = 32 * 1024 // 32KB default buffer size

// bufferPool provides a pool of reusable read buffers for the streaming engine.
// Buffers are always defaultBufferSize long, a multiple of BlockSize.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		return make([]byte, defaultBufferSize)
	},
}

func getBuffer() []byte {
	buf, ok := bufferPool.Get().([]byte)
	if !ok || len(buf) != defaultBufferSize {
		return make([]byte, defaultBufferSize)
	}

	return buf
}

func putBuffer(buf []byte) {
	bufferPool.Put(buf) //nolint:staticcheck
}
