package cmdutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newInput(t *testing.T, content string) *os.File {
	path := filepath.Join(t.TempDir(), "stdin")
	err := os.WriteFile(path, []byte(content), 0600)
	if nil != err {
		t.Fatalf("failed WriteFile, got error %v", err)
	}
	in, err := os.Open(path)
	if nil != err {
		t.Fatalf("failed Open, got error %v", err)
	}
	t.Cleanup(func() { in.Close() })
	return in
}

func TestReadPasswordLines(t *testing.T) {
	var out bytes.Buffer
	prompter := &Prompter{In: newInput(t, "swordfish\r\nswordfish\nlast"), Out: &out}

	expected := []string{"swordfish", "swordfish", "last"}
	for i, exp := range expected {
		password, err := prompter.ReadPassword("Password: ")
		if nil != err {
			t.Fatalf("#%d: failed ReadPassword, got error %v", i, err)
		}
		if exp != string(password) {
			t.Errorf("#%d: password %q != %q", i, password, exp)
		}
	}
	if "Password: Password: Password: " != out.String() {
		t.Errorf("unexpected prompts %q", out.String())
	}

	_, err := prompter.ReadPassword("Password: ")
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadPassword at EOF -> %v", err)
	}
}

func TestReadPasswordEmpty(t *testing.T) {
	prompter := &Prompter{In: newInput(t, "\n"), Out: io.Discard}
	password, err := prompter.ReadPassword("Password: ")
	if nil != err {
		t.Fatalf("failed ReadPassword, got error %v", err)
	}
	if 0 != len(password) {
		t.Errorf("password %q is not empty", password)
	}
}

func TestDedent(t *testing.T) {
	const doc = `
	First line.
	  Second line.
	`
	expected := "First line.\nSecond line."
	if got := Dedent(doc); expected != got {
		t.Errorf("Dedent -> %q != %q", got, expected)
	}
}
