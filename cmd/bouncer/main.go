package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path"
	"strconv"
	"time"

	flag "github.com/ogier/pflag"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/cmdutil"
	"github.com/bouncerd/bouncer/internal/knock"
	"github.com/bouncerd/bouncer/internal/transport"
)

const usageFmt = `
Command Usage: %s [Flags] SERVER
  Knock on the bouncer daemon running on SERVER.
  Every address SERVER resolves to is tried in turn.
  Exits with status 1 if a daemon could not be reached.

Flags:
------
`

type Cmd struct {
	Server  string
	Port    uint16
	Digest  algos.Digest
	Timeout time.Duration
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	var port uint
	flags.UintVarP(&port, "port", "p", knock.DefaultPort, `daemon UDP port`)

	var digestName string
	const digestDoc = `
	Digest algorithm name, one of %+v.
	Must match the digest used by the daemon.
	`
	flags.StringVar(&digestName, "digest", algos.DefaultDigest, cmdutil.Dedent(fmt.Sprintf(digestDoc, algos.ListDigests())))

	flags.DurationVarP(&cmd.Timeout, "timeout", "t", 5*time.Second, `time to wait for each daemon reply, no limit if 0`)

	flags.Parse(args)

	if 1 != flags.NArg() {
		flags.Usage()
		os.Exit(2)
	}
	cmd.Server = flags.Arg(0)

	if port > 0xFFFF {
		log.Fatalf("Invalid port %d", port)
	}
	cmd.Port = uint16(port)

	digest, err := algos.GetDigest(digestName)
	if nil != err {
		log.Fatalf("Invalid digest %q, got error %v", digestName, err)
	}
	cmd.Digest = digest

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	password, err := cmdutil.NewPrompter().ReadPassword("Password: ")
	if nil != err {
		log.Fatalf("Failed reading password, got error %v", err)
	}
	if 0 == len(password) {
		log.Fatalf("Password is empty")
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, cmd.Server)
	if nil != err {
		log.Fatalf("Failed resolving %s, got error %v", cmd.Server, err)
	}

	client := knock.Client{Digest: cmd.Digest}
	err = knockAll(ctx, os.Stdout, client, addrs, cmd.Port, cmd.Timeout, password)
	clear(password)
	if nil != err {
		log.Fatalf("Failed knocking on %s, got error %v", cmd.Server, err)
	}
}

// knockAll knocks on every addr and prints the outcome of each attempt to out.
// All addrs are tried, knockAll errors if any attempt did not get a result from the daemon.
func knockAll(ctx context.Context, out io.Writer, client knock.Client, addrs []string, port uint16, timeout time.Duration, password []byte) error {
	var errs []error
	sport := strconv.Itoa(int(port))
	for _, addr := range addrs {
		fmt.Fprintf(out, "Knocking on %s... ", addr)
		accepted, err := knockAddr(ctx, client, net.JoinHostPort(addr, sport), timeout, password)
		switch {
		case nil != err:
			fmt.Fprintln(out, "Failure!")
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		case accepted:
			fmt.Fprintln(out, "Success!")
		default:
			fmt.Fprintln(out, "Failure!")
		}
	}
	return errors.Join(errs...)
}

func knockAddr(ctx context.Context, client knock.Client, addr string, timeout time.Duration, password []byte) (bool, error) {
	tr, err := transport.Dial(ctx, addr, timeout)
	if nil != err {
		return false, err
	}
	defer tr.Close()

	return client.Knock(ctx, tr, password)
}
