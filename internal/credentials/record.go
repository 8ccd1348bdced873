// Package credentials manages the salted password commitment shared by the daemon and its clients.
package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
	"os"

	"github.com/bouncerd/bouncer/internal/algos"
)

const (
	// SaltSize is the size of the password salt.
	SaltSize = algos.DigestSize

	// RecordSize is the size of a serialized Record, salt followed by hash.
	RecordSize = SaltSize + algos.DigestSize

	// DefaultPath is where the daemon loads its Record from.
	DefaultPath = "/etc/bouncer/password"
)

// Record holds the password salt and hash. It never contains the password.
type Record struct {
	Salt [SaltSize]byte
	Hash algos.Sum
}

// New returns a Record for password using a fresh salt read from rng.
// It errors if password is empty or if rng does not deliver SaltSize bytes.
// If rng is nil, crypto/rand Reader is used.
func New(password []byte, digest algos.Digest, rng io.Reader) (Record, error) {
	var rec Record

	if 0 == len(password) {
		return rec, flagError(ErrEmptyPassword, "password is empty")
	}
	if nil == digest {
		return rec, newError("nil Digest")
	}
	if nil == rng {
		rng = rand.Reader
	}

	_, err := io.ReadFull(rng, rec.Salt[:])
	if nil != err {
		return rec, wrapFlagError(err, ErrShortEntropy, "failed reading %d bytes of salt", SaltSize)
	}
	rec.Hash = Derive(digest, rec.Salt[:], password)

	return rec, nil
}

// Derive returns Digest(salt ++ password).
// The daemon stores it, the client recomputes it from the salt found in a challenge.
func Derive(digest algos.Digest, salt []byte, password []byte) algos.Sum {
	return digest.Sum(salt, password)
}

// Check returns true if password matches the Record.
func (self Record) Check(digest algos.Digest, password []byte) bool {
	sum := Derive(digest, self.Salt[:], password)
	return 1 == subtle.ConstantTimeCompare(sum[:], self.Hash[:])
}

// MarshalBinary returns the 40 bytes serialized Record.
func (self Record) MarshalBinary() ([]byte, error) {
	rv := make([]byte, RecordSize)
	copy(rv, self.Salt[:])
	copy(rv[SaltSize:], self.Hash[:])
	return rv, nil
}

// UnmarshalBinary loads data into the Record.
// It errors if data is shorter than RecordSize, trailing bytes are ignored.
func (self *Record) UnmarshalBinary(data []byte) error {
	if len(data) < RecordSize {
		return flagError(ErrShortFile, "got %d bytes, expected %d", len(data), RecordSize)
	}
	copy(self.Salt[:], data[:SaltSize])
	copy(self.Hash[:], data[SaltSize:RecordSize])
	return nil
}

// Load reads the Record saved at path.
func Load(path string) (Record, error) {
	var rec Record

	f, err := os.Open(path)
	if nil != err {
		return rec, wrapError(err, "failed opening %s", path)
	}
	defer f.Close()

	buf := make([]byte, RecordSize)
	n, err := io.ReadFull(f, buf)
	if nil != err {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return rec, flagError(ErrShortFile, "short read from %s, got %d bytes", path, n)
		}
		return rec, wrapError(err, "failed reading %s", path)
	}

	err = rec.UnmarshalBinary(buf)
	return rec, wrapError(err, "failed loading %s", path) // nil if err is nil
}

// Save writes the Record at path, replacing any existing file.
// It errors if fewer than RecordSize bytes were written.
func Save(path string, rec Record) error {
	data, _ := rec.MarshalBinary()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if nil != err {
		return wrapError(err, "failed opening %s", path)
	}

	n, err := f.Write(data)
	if nil == err && n < RecordSize {
		err = io.ErrShortWrite
	}
	if nil != err {
		f.Close()
		return wrapError(err, "failed writing %d bytes to %s", RecordSize, path)
	}

	return wrapError(f.Close(), "failed closing %s", path) // nil if err is nil
}
