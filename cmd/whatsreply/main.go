package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"whatsreply/internal/config"
	"whatsreply/internal/suggest"
	"whatsreply/internal/types"
	"whatsreply/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cfg := config.Load()
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}
	code := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, systemClipboard{}, systemLauncher{})
	stop()
	os.Exit(code)
}

type options struct {
	message      string
	relationship string
	outcome      string
	copyIndex    int
	open         bool
	list         bool
	backend      string
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("whatsreply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.message, "m", "", "received message; \"-\" reads stdin, empty pastes from the clipboard")
	fs.StringVar(&o.relationship, "r", "", "relationship type (value, label or number, see -list)")
	fs.StringVar(&o.outcome, "o", "", "desired outcome (value, label or number, see -list)")
	fs.IntVar(&o.copyIndex, "copy", 0, "copy suggestion N (1-based) to the clipboard")
	fs.BoolVar(&o.open, "open", false, "open WhatsApp after generating")
	fs.BoolVar(&o.list, "list", false, "list relationship types and desired outcomes")
	fs.StringVar(&o.backend, "url", cfg.BackendURL, "suggestion backend base URL")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer, cb ui.Clipboard, l ui.URLLauncher) int {
	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return 2
	}
	if o.list {
		printOptions(stdout)
		return 0
	}

	client := suggest.New(o.backend, suggest.WithTimeout(cfg.RequestTimeout))
	sess := ui.NewSession(client, cb, l)

	if code := fillInputs(ctx, sess, o, stdin, stderr); code != 0 {
		return code
	}

	fmt.Fprintln(stderr, "Generating suggestions...")
	if err := sess.Submit(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", sess.Snapshot().Error)
		return 1
	}
	render(stdout, sess.Snapshot())

	code := 0
	if o.copyIndex != 0 {
		if err := sess.Copy(ctx, o.copyIndex-1); err != nil {
			fmt.Fprintf(stderr, "Error: copy suggestion %d: %v\n", o.copyIndex, err)
			code = 1
		} else {
			fmt.Fprintf(stderr, "Copied suggestion %d to the clipboard.\n", o.copyIndex)
		}
	}
	if o.open {
		if err := sess.OpenMessenger(ctx); err != nil {
			if errors.Is(err, ui.ErrAppUnavailable) {
				fmt.Fprintf(stderr, "WhatsApp Not Found: %s\n", sess.Snapshot().Notice)
			} else {
				fmt.Fprintf(stderr, "Error: %v\n", err)
			}
			code = 1
		}
	}
	return code
}

// fillInputs copies the flag values into the session. It returns a non-zero
// exit code after reporting any failure.
func fillInputs(ctx context.Context, sess *ui.Session, o options, stdin io.Reader, stderr io.Writer) int {
	var err error
	switch o.message {
	case "":
		if err := sess.PasteMessage(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: could not paste the received message: %v\n", err)
			return 1
		}
	case "-":
		b, rerr := io.ReadAll(stdin)
		if rerr != nil {
			fmt.Fprintf(stderr, "Error: reading stdin: %v\n", rerr)
			return 1
		}
		err = sess.SetMessage(string(b))
	default:
		err = sess.SetMessage(o.message)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: set message: %v\n", err)
		return 1
	}
	if o.relationship != "" {
		opt, ok := types.LookupOption(types.RelationshipTypes, o.relationship)
		if !ok {
			fmt.Fprintf(stderr, "Error: unknown relationship type %q (see -list)\n", o.relationship)
			return 2
		}
		if err := sess.SetRelationship(opt.Value); err != nil {
			fmt.Fprintf(stderr, "Error: set relationship type: %v\n", err)
			return 1
		}
	}
	if o.outcome != "" {
		opt, ok := types.LookupOption(types.DesiredOutcomes, o.outcome)
		if !ok {
			fmt.Fprintf(stderr, "Error: unknown desired outcome %q (see -list)\n", o.outcome)
			return 2
		}
		if err := sess.SetOutcome(opt.Value); err != nil {
			fmt.Fprintf(stderr, "Error: set desired outcome: %v\n", err)
			return 1
		}
	}
	return 0
}

func render(w io.Writer, snap ui.Snapshot) {
	if len(snap.Suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions returned.")
		return
	}
	for i, s := range snap.Suggestions {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, s.Tone, s.Text)
		if strings.TrimSpace(s.Reasoning) != "" {
			fmt.Fprintf(w, "   %s\n", s.Reasoning)
		}
	}
}

func printOptions(w io.Writer) {
	fmt.Fprintln(w, "Relationship types:")
	for i, o := range types.RelationshipTypes {
		fmt.Fprintf(w, "  %d. %s\n", i+1, o.Label)
	}
	fmt.Fprintln(w, "Desired outcomes:")
	for i, o := range types.DesiredOutcomes {
		fmt.Fprintf(w, "  %d. %s\n", i+1, o.Label)
	}
}
