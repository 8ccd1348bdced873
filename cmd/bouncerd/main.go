package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	flag "github.com/ogier/pflag"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/cmdutil"
	"github.com/bouncerd/bouncer/internal/credentials"
	"github.com/bouncerd/bouncer/internal/knock"
	"github.com/bouncerd/bouncer/internal/observability"
	"github.com/bouncerd/bouncer/internal/server"
	"github.com/bouncerd/bouncer/internal/trigger"
)

const usageFmt = `
Command Usage: %s [Flags]
  Run the bouncer knock daemon.
  Clients proving knowledge of the password are passed to the whitelist program.

Flags:
------
`

type Cmd struct {
	Listen         string
	PasswordFile   string
	Whitelist      string
	Digest         string
	Journal        string
	JournalDSN     string
	MultiMatch     bool
	KeepGoing      bool
	TriggerTimeout time.Duration
	Debug          bool
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	flags.StringVarP(&cmd.Listen, "listen", "l", fmt.Sprintf(":%d", knock.DefaultPort), `UDP address the daemon listens on`)
	flags.StringVarP(&cmd.PasswordFile, "password-file", "p", credentials.DefaultPath, `credential file created by bouncer-passwd`)
	flags.StringVarP(&cmd.Whitelist, "whitelist", "w", trigger.DefaultPath, `program run with the address of each authenticated client`)

	const digestDoc = `
	Digest algorithm name, one of %+v.
	Must match the digest used by bouncer-passwd and the clients.
	`
	flags.StringVar(&cmd.Digest, "digest", algos.DefaultDigest, cmdutil.Dedent(fmt.Sprintf(digestDoc, algos.ListDigests())))

	flags.StringVar(&cmd.Journal, "journal", "", `path of a bbolt file where verdicts are recorded`)
	flags.StringVar(&cmd.JournalDSN, "journal-dsn", "", `postgres DSN of a database where verdicts are recorded`)
	flags.BoolVar(&cmd.MultiMatch, "multi-match", false, `verify a response against every pending session of its address`)
	flags.BoolVar(&cmd.KeepGoing, "keep-going", false, `log whitelist program failures instead of exiting`)
	flags.DurationVar(&cmd.TriggerTimeout, "trigger-timeout", 0, `whitelist program time limit, no limit if 0`)
	flags.BoolVarP(&cmd.Debug, "debug", "d", false, `log at DEBUG level`)

	flags.Parse(args)
	if flags.NArg() > 0 {
		flags.Usage()
		os.Exit(2)
	}

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	logger := observability.NewLogger(os.Stderr, observability.LevelFor(cmd.Debug))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	digest, err := algos.GetDigest(cmd.Digest)
	if nil != err {
		log.Fatalf("Invalid digest %q, got error %v", cmd.Digest, err)
	}

	cred, err := credentials.Load(cmd.PasswordFile)
	if nil != err {
		log.Fatalf("Failed loading credential file %s, got error %v", cmd.PasswordFile, err)
	}

	engine, err := knock.NewEngine(cred, digest, trigger.ExecTrigger{Path: cmd.Whitelist, Timeout: cmd.TriggerTimeout})
	if nil != err {
		log.Fatalf("Failed engine creation, got error %v", err)
	}
	engine.MultiMatch = cmd.MultiMatch

	jrn, err := cmdutil.OpenJournal(ctx, cmd.Journal, cmd.JournalDSN)
	if nil != err {
		log.Fatalf("Failed opening journal, got error %v", err)
	}

	conn, err := net.ListenPacket("udp", cmd.Listen)
	if nil != err {
		log.Fatalf("Failed listening on %s, got error %v", cmd.Listen, err)
	}
	defer conn.Close()

	srv := server.Server{
		Conn:                   conn,
		Engine:                 engine,
		Journal:                jrn,
		TolerateTriggerFailure: cmd.KeepGoing,
		Logger:                 logger,
	}
	err = srv.Serve(ctx)
	if nil != err {
		log.Fatalf("Daemon stopped, got error %v", err)
	}
}
