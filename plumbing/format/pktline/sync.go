package pktline

import "sync"

var byteSlicePool = sync.Pool{
	New: func() interface{} {
		var b [MaxPacketSize]byte
		return &b
	},
}

// GetPacketBuffer returns a *[MaxPacketSize]byte managed by a sync.Pool,
// reused across successive pkt-line reads/writes to avoid per-packet
// allocation on the transport hot path.
//
// After use, return it with PutPacketBuffer.
func GetPacketBuffer() *[MaxPacketSize]byte {
	return byteSlicePool.Get().(*[MaxPacketSize]byte)
}

// PutPacketBuffer returns buf to the pool.
func PutPacketBuffer(buf *[MaxPacketSize]byte) {
	byteSlicePool.Put(buf)
}
