package utils

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry[string, int]()

	err := reg.Register("one", 1)
	if nil != err {
		t.Fatalf("failed Register, got error %v", err)
	}

	v, found := reg.Lookup("one")
	if !found || 1 != v {
		t.Errorf("Lookup(one) -> %d, %v", v, found)
	}

	_, found = reg.Lookup("two")
	if found {
		t.Error("Lookup reports found on missing name")
	}
}

func TestRegistryConflict(t *testing.T) {
	reg := NewRegistry[string, int]()
	if err := reg.Register("one", 1); nil != err {
		t.Fatalf("failed Register, got error %v", err)
	}
	err := reg.Register("one", 2)
	if !errors.Is(err, Error) {
		t.Errorf("expected utils.Error on conflict, got %v", err)
	}
	v, _ := reg.Lookup("one")
	if 1 != v {
		t.Errorf("conflicting Register modified entry, %d != 1", v)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry[string, int]()
	for i, name := range []string{"SHAKE", "BLAKE", "SHA1"} {
		reg.Register(name, i)
	}

	names := reg.Names()
	if !slices.Equal([]string{"BLAKE", "SHA1", "SHAKE"}, names) {
		t.Errorf("Names -> %v", names)
	}
}
