package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"text/tabwriter"
	"time"

	flag "github.com/ogier/pflag"

	"github.com/bouncerd/bouncer/internal/cmdutil"
)

const usageFmt = `
Command Usage: %s [Flags]
  List the verdicts recorded by the bouncer daemon, newest first.

Flags:
------
`

type Cmd struct {
	Journal    string
	JournalDSN string
	Limit      int
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	flags.StringVar(&cmd.Journal, "journal", "", `path of the bbolt journal file`)
	flags.StringVar(&cmd.JournalDSN, "journal-dsn", "", `postgres DSN of the journal database`)
	flags.IntVarP(&cmd.Limit, "limit", "n", 20, `number of verdicts to list, all if 0`)

	flags.Parse(args)
	if flags.NArg() > 0 || ("" == cmd.Journal && "" == cmd.JournalDSN) {
		flags.Usage()
		os.Exit(2)
	}

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])
	ctx := context.Background()

	jrn, err := cmdutil.OpenJournal(ctx, cmd.Journal, cmd.JournalDSN)
	if nil != err {
		log.Fatalf("Failed opening journal, got error %v", err)
	}

	count, err := jrn.Count(ctx)
	if nil != err {
		log.Fatalf("Failed counting verdicts, got error %v", err)
	}
	entries, err := jrn.List(ctx, cmd.Limit)
	if nil != err {
		log.Fatalf("Failed listing verdicts, got error %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tADDRESS\tVERDICT\tID")
	for _, entry := range entries {
		verdict := "rejected"
		if entry.Accepted {
			verdict = "accepted"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.At.Local().Format(time.DateTime), entry.Addr, verdict, entry.ID)
	}
	tw.Flush()
	fmt.Printf("%d of %d verdicts\n", len(entries), count)
}
