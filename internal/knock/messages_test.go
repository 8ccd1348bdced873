package knock

import (
	"bytes"
	"errors"
	"testing"
)

func TestChallengeLayout(t *testing.T) {
	chal := Challenge{}
	for i := range chal.SessionSalt {
		chal.SessionSalt[i] = byte(i)
		chal.PasswordSalt[i] = byte(0xE0 + i)
	}
	data, err := chal.MarshalBinary()
	if nil != err {
		t.Fatalf("failed MarshalBinary, got error %v", err)
	}
	if ChallengeSize != len(data) {
		t.Fatalf("len(data) -> %d != %d", len(data), ChallengeSize)
	}
	if !bytes.Equal(chal.SessionSalt[:], data[0:20]) || !bytes.Equal(chal.PasswordSalt[:], data[20:40]) {
		t.Errorf("unexpected layout % X", data)
	}

	loaded := Challenge{}
	if err = loaded.UnmarshalBinary(data); nil != err {
		t.Fatalf("failed UnmarshalBinary, got error %v", err)
	}
	if loaded != chal {
		t.Error("UnmarshalBinary does not restore Challenge")
	}

	for _, size := range []int{0, 20, 39, 41} {
		err = loaded.UnmarshalBinary(make([]byte, size))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("UnmarshalBinary(%d bytes) -> %v", size, err)
		}
	}
}

func TestResultMsg(t *testing.T) {
	if !bytes.Equal(make([]byte, ResultSize), ResultMsg(true)) {
		t.Errorf("ResultMsg(true) -> % X", ResultMsg(true))
	}
	if !bytes.Equal(bytes.Repeat([]byte{0xFF}, ResultSize), ResultMsg(false)) {
		t.Errorf("ResultMsg(false) -> % X", ResultMsg(false))
	}

	for _, accepted := range []bool{true, false} {
		got, err := ReadResult(ResultMsg(accepted))
		if nil != err || got != accepted {
			t.Errorf("ReadResult(ResultMsg(%v)) -> %v, %v", accepted, got, err)
		}
	}

	// only the first byte matters
	msg := bytes.Repeat([]byte{0xFF}, ResultSize)
	msg[0] = 0
	got, _ := ReadResult(msg)
	if !got {
		t.Error("ReadResult inspects more than the first byte")
	}

	_, err := ReadResult(make([]byte, ChallengeSize))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("ReadResult(40 bytes) -> %v", err)
	}
}

func TestResponseChaining(t *testing.T) {
	f := newFixture(t, "swordfish")
	sessionSalt := bytes.Repeat([]byte{0x11}, 20)

	resp := Response(f.digest, sessionSalt, f.cred.Hash)
	expected := f.digest.Sum(append(append([]byte{}, sessionSalt...), f.cred.Hash[:]...))
	if resp != expected {
		t.Error("Response is not Digest(sessionSalt ++ passwordHash)")
	}
	reversed := f.digest.Sum(f.cred.Hash[:], sessionSalt)
	if resp == reversed {
		t.Error("Response does not depend on concatenation order")
	}
}
