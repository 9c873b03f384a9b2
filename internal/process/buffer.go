package process

import (
	"bytes"
	"sync"
)

// cappedBuffer collects process output up to limit bytes. The first write
// that would cross the limit is truncated, onExceed fires once, and every
// write from then on fails with ErrOutputLimit.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int64
	exceeded bool
	onExceed func()
}

func newCappedBuffer(limit int64, onExceed func()) *cappedBuffer {
	return &cappedBuffer{limit: limit, onExceed: onExceed}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exceeded {
		return 0, ErrOutputLimit
	}
	if b.limit <= 0 || int64(b.buf.Len())+int64(len(p)) <= b.limit {
		return b.buf.Write(p)
	}

	room := b.limit - int64(b.buf.Len())
	b.buf.Write(p[:room])
	b.exceeded = true
	if b.onExceed != nil {
		b.onExceed()
	}
	return int(room), ErrOutputLimit
}

// Bytes returns a copy of everything captured so far.
func (b *cappedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
