package algos

import (
	"crypto/sha1"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/bouncerd/bouncer/internal/utils"
)

const (
	DIGEST_SHA1         = "SHA1"
	DIGEST_BLAKE2B_160  = "BLAKE2b/160"
	DIGEST_SHAKE256_160 = "SHAKE256/160"

	// DefaultDigest is the digest expected by existing bouncer clients and daemons.
	DefaultDigest = DIGEST_SHA1
)

// DigestSize is the fixed size of every Digest output.
// The wire protocol layout depends on it.
const DigestSize = 20

// Sum is a Digest output.
type Sum = [DigestSize]byte

// Digest is a deterministic hash function producing DigestSize bytes.
type Digest interface {
	// Name returns the registry name of the Digest.
	Name() string

	// Sum returns the digest of the concatenation of parts.
	Sum(parts ...[]byte) Sum
}

// hashDigest adapts a hash.Hash constructor to the Digest interface.
type hashDigest struct {
	name string
	new  func() hash.Hash
}

func (self hashDigest) Name() string {
	return self.name
}

func (self hashDigest) Sum(parts ...[]byte) Sum {
	var rv Sum
	h := self.new()
	for _, part := range parts {
		h.Write(part)
	}
	copy(rv[:], h.Sum(nil))
	return rv
}

// shakeDigest reads DigestSize bytes from a SHAKE extendable output function.
type shakeDigest struct {
	name string
}

func (self shakeDigest) Name() string {
	return self.name
}

func (self shakeDigest) Sum(parts ...[]byte) Sum {
	var rv Sum
	h := sha3.NewShake256()
	for _, part := range parts {
		h.Write(part)
	}
	h.Read(rv[:])
	return rv
}

var digestRegistry *utils.Registry[string, Digest]

// MustRegisterDigest adds digest to the Digest registry. It panics if name is already in use.
func MustRegisterDigest(digest Digest) {
	err := RegisterDigest(digest)
	if nil != err {
		panic(err)
	}
}

// RegisterDigest adds digest to the Digest registry. It errors if digest name is already in use.
func RegisterDigest(digest Digest) error {
	if nil == digest {
		return newError("nil Digest")
	}
	return wrapError(
		digestRegistry.Register(digest.Name(), digest),
		"failed registering Digest algorithm, %s",
		digest.Name(),
	)
}

// GetDigest loads Digest implementation from the registry. It errors if no digest was registered with name.
func GetDigest(name string) (Digest, error) {
	digest, found := digestRegistry.Lookup(name)
	if !found {
		return nil, newError("unsupported Digest algorithm, %s", name)
	}
	return digest, nil
}

// ListDigests returns the sorted names of the registered Digest algorithms.
func ListDigests() []string {
	return digestRegistry.Names()
}

func newBlake2b160() hash.Hash {
	// only errors for invalid size or key
	h, _ := blake2b.New(DigestSize, nil)
	return h
}

func init() {
	digestRegistry = utils.NewRegistry[string, Digest]()
	MustRegisterDigest(hashDigest{name: DIGEST_SHA1, new: sha1.New})
	MustRegisterDigest(hashDigest{name: DIGEST_BLAKE2B_160, new: newBlake2b160})
	MustRegisterDigest(shakeDigest{name: DIGEST_SHAKE256_160})
}
