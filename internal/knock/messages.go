package knock

import (
	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/credentials"
)

// Wire packet sizes. Datagram size is the only framing.
const (
	RequestSize   = algos.DigestSize
	ResponseSize  = algos.DigestSize
	ChallengeSize = 2 * algos.DigestSize
	ResultSize    = algos.DigestSize

	// DefaultPort is the UDP port the daemon listens on.
	DefaultPort = 730
)

const (
	resultAccepted = 0x00
	resultRejected = 0xFF
)

// Challenge is the daemon answer to a request.
type Challenge struct {
	SessionSalt  [algos.DigestSize]byte
	PasswordSalt [credentials.SaltSize]byte
}

// MarshalBinary returns the 40 bytes Challenge packet.
func (self Challenge) MarshalBinary() ([]byte, error) {
	rv := make([]byte, ChallengeSize)
	copy(rv, self.SessionSalt[:])
	copy(rv[algos.DigestSize:], self.PasswordSalt[:])
	return rv, nil
}

// UnmarshalBinary loads a Challenge packet.
// It errors if data size is not ChallengeSize.
func (self *Challenge) UnmarshalBinary(data []byte) error {
	if len(data) != ChallengeSize {
		return flagError(ErrMalformed, "invalid Challenge size, got %d bytes", len(data))
	}
	copy(self.SessionSalt[:], data[:algos.DigestSize])
	copy(self.PasswordSalt[:], data[algos.DigestSize:])
	return nil
}

// ResultMsg returns the Result packet, all zero if accepted, all 0xFF otherwise.
func ResultMsg(accepted bool) []byte {
	var b byte = resultRejected
	if accepted {
		b = resultAccepted
	}
	rv := make([]byte, ResultSize)
	for i := range rv {
		rv[i] = b
	}
	return rv
}

// ReadResult returns true if the Result packet msg reports success.
// Only the first byte is inspected, it errors if msg size is not ResultSize.
func ReadResult(msg []byte) (bool, error) {
	if len(msg) != ResultSize {
		return false, flagError(ErrMalformed, "invalid Result size, got %d bytes", len(msg))
	}
	return resultAccepted == msg[0], nil
}

// Response returns Digest(sessionSalt ++ passwordHash).
// The client obtains passwordHash with credentials.Derive.
func Response(digest algos.Digest, sessionSalt []byte, passwordHash algos.Sum) algos.Sum {
	return digest.Sum(sessionSalt, passwordHash[:])
}
