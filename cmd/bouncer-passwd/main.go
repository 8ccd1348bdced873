package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path"

	flag "github.com/ogier/pflag"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/cmdutil"
	"github.com/bouncerd/bouncer/internal/credentials"
)

const usageFmt = `
Command Usage: %s [Flags]
  Set the password of the bouncer daemon.
  The password is read twice, a salted digest of it is saved in the credential file.

Flags:
------
`

type Cmd struct {
	PasswordFile string
	Digest       algos.Digest
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	flags.StringVarP(&cmd.PasswordFile, "password-file", "p", credentials.DefaultPath, `credential file to write`)

	var digestName string
	const digestDoc = `
	Digest algorithm name, one of %+v.
	Must match the digest used by the daemon and the clients.
	`
	flags.StringVar(&digestName, "digest", algos.DefaultDigest, cmdutil.Dedent(fmt.Sprintf(digestDoc, algos.ListDigests())))

	flags.Parse(args)
	if flags.NArg() > 0 {
		flags.Usage()
		os.Exit(2)
	}

	digest, err := algos.GetDigest(digestName)
	if nil != err {
		log.Fatalf("Invalid digest %q, got error %v", digestName, err)
	}
	cmd.Digest = digest

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	prompter := cmdutil.NewPrompter()
	password, err := prompter.ReadPassword("New password: ")
	if nil != err {
		log.Fatalf("Failed reading password, got error %v", err)
	}
	if 0 == len(password) {
		log.Fatalf("Password is empty")
	}
	confirmation, err := prompter.ReadPassword("Confirm password: ")
	if nil != err {
		log.Fatalf("Failed reading password confirmation, got error %v", err)
	}
	if !bytes.Equal(password, confirmation) {
		log.Fatalf("Passwords do not match")
	}

	rec, err := credentials.New(password, cmd.Digest, nil)
	clear(password)
	clear(confirmation)
	if nil != err {
		log.Fatalf("Failed deriving credential, got error %v", err)
	}

	err = credentials.Save(cmd.PasswordFile, rec)
	if nil != err {
		log.Fatalf("Failed saving credential file %s, got error %v", cmd.PasswordFile, err)
	}
	fmt.Fprintf(os.Stderr, "Password saved in %s\n", cmd.PasswordFile)
}
