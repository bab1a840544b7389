package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	commonerrors "nova-client/internal/common/errors"

	"github.com/shopspring/decimal"
)

// Notifier prints flow outcomes. Errors go to the error stream so stdout
// stays usable in pipes.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

func NewNotifier(out, errOut io.Writer) *Notifier {
	return &Notifier{out: out, err: errOut}
}

func (n *Notifier) Success(msg string) { n.print(n.out, msg) }
func (n *Notifier) Info(msg string)    { n.print(n.out, msg) }
func (n *Notifier) Error(msg string)   { n.print(n.err, "error: "+msg) }

func (n *Notifier) print(w io.Writer, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(w, msg)
}

// errReported wraps an error the user has already been shown.
type errReported struct {
	error
}

func (e errReported) Unwrap() error { return e.error }

// IsReported tells Execute not to print err a second time.
func IsReported(err error) bool {
	var r errReported
	return errors.As(err, &r)
}

// reported prints err and marks it as shown.
func reported(err error, w io.Writer) error {
	fmt.Fprintln(w, "error: "+err.Error())
	return errReported{err}
}

// failed prints the user-facing message for a direct API failure.
func failed(err error, fallback string, w io.Writer) error {
	fmt.Fprintln(w, "error: "+commonerrors.UserMessage(err, fallback))
	return errReported{err}
}

// notified marks an error a flow already sent through the Notifier.
func notified(err error) error {
	if err == nil {
		return nil
	}
	return errReported{err}
}

func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned into columns.
func (a *App) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// fields writes label/value pairs aligned on the colon.
func (a *App) fields(pairs ...string) error {
	tw := tabwriter.NewWriter(a.Out, 0, 0, 1, ' ', 0)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(tw, "%s:\t%s\n", pairs[i], pairs[i+1])
	}
	return tw.Flush()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func dateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
