package transport

import (
	"sync"
)

// LimitTransport is a Transport that fails after a certain number of datagrams have been processed.
//
// LimitTransport is provided to simplify protocol testing.
type LimitTransport struct {
	Transport
	mut    sync.Mutex
	rlimit int
	wlimit int
	rcount int
	wcount int
}

// NewLimitTransport returns a LimitTransport that wraps t without limits.
func NewLimitTransport(t Transport) *LimitTransport {
	return &LimitTransport{Transport: t, rlimit: -1, wlimit: -1}
}

// SetReadLimit sets the number of datagrams that can be read, no limit if < 0.
func (self *LimitTransport) SetReadLimit(limit int) {
	self.mut.Lock()
	defer self.mut.Unlock()

	self.rlimit = limit
	self.rcount = 0
}

// SetWriteLimit sets the number of datagrams that can be written, no limit if < 0.
func (self *LimitTransport) SetWriteLimit(limit int) {
	self.mut.Lock()
	defer self.mut.Unlock()

	self.wlimit = limit
	self.wcount = 0
}

// ReadBytes errors if the read limit has been reached.
// Otherwise data is read from the underlaying Transport.
func (self *LimitTransport) ReadBytes() ([]byte, error) {
	self.mut.Lock()
	if self.rlimit >= 0 && self.rcount >= self.rlimit {
		self.mut.Unlock()
		return nil, flagError(ReadLimitError, "test only")
	}
	self.rcount += 1
	self.mut.Unlock()

	return self.Transport.ReadBytes()
}

// WriteBytes errors if the write limit has been reached.
// Otherwise data is written to the underlaying Transport.
func (self *LimitTransport) WriteBytes(data []byte) error {
	self.mut.Lock()
	if self.wlimit >= 0 && self.wcount >= self.wlimit {
		self.mut.Unlock()
		return flagError(WriteLimitError, "test only")
	}
	self.wcount += 1
	self.mut.Unlock()

	return self.Transport.WriteBytes(data)
}

var _ Transport = &LimitTransport{}
