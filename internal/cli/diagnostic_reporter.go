package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ncosentino/needlr/internal/errors"
	"github.com/ncosentino/needlr/internal/models"
)

// DiagnosticReporter renders analysis diagnostics and host errors for the
// terminal. Analysis diagnostics are findings about the analyzed code; host
// errors mean the run itself failed.
type DiagnosticReporter struct {
	out     io.Writer
	verbose bool
	quiet   bool
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose, quiet bool) *DiagnosticReporter {
	return &DiagnosticReporter{out: os.Stderr, verbose: verbose, quiet: quiet}
}

// NewDiagnosticReporterWriter creates a reporter writing to w, for tests
func NewDiagnosticReporterWriter(w io.Writer, verbose, quiet bool) *DiagnosticReporter {
	return &DiagnosticReporter{out: w, verbose: verbose, quiet: quiet}
}

var (
	errorTag   = color.New(color.FgRed, color.Bold)
	warningTag = color.New(color.FgYellow, color.Bold)
	infoTag    = color.New(color.FgCyan)
	subjectFmt = color.New(color.Bold)
	pathFmt    = color.New(color.Faint)
)

// ReportDiagnostics renders all diagnostics of a run in pipeline order.
// Info diagnostics are shown only in verbose mode; quiet mode shows errors
// only.
func (r *DiagnosticReporter) ReportDiagnostics(diags models.Diagnostics) {
	for _, d := range diags {
		switch d.Severity {
		case models.SeverityInfo:
			if !r.verbose || r.quiet {
				continue
			}
		case models.SeverityWarning:
			if r.quiet {
				continue
			}
		}
		r.reportOne(d)
	}
}

func (r *DiagnosticReporter) reportOne(d models.Diagnostic) {
	switch d.Severity {
	case models.SeverityError:
		errorTag.Fprintf(r.out, "error %s: ", d.Code)
	case models.SeverityWarning:
		warningTag.Fprintf(r.out, "warning %s: ", d.Code)
	default:
		infoTag.Fprintf(r.out, "info %s: ", d.Code)
	}
	fmt.Fprintln(r.out, d.Message)

	if d.Subject != "" {
		fmt.Fprint(r.out, "  subject: ")
		subjectFmt.Fprintln(r.out, d.Subject)
	}
	if len(d.Path) > 0 {
		fmt.Fprint(r.out, "  path:    ")
		pathFmt.Fprintln(r.out, strings.Join(d.Path, " -> "))
	}
}

// ReportError renders a fatal host error with its suggestions and, in
// verbose mode, the underlying cause chain.
func (r *DiagnosticReporter) ReportError(err error) {
	errorTag.Fprint(r.out, "error: ")
	fmt.Fprintln(r.out, err.Error())

	var nerr errors.NeedlrError
	if stderrors.As(err, &nerr) {
		for _, hint := range nerr.Suggestions() {
			fmt.Fprintf(r.out, "  hint: %s\n", hint)
		}
		if r.verbose {
			for cause := nerr.Unwrap(); cause != nil; cause = stderrors.Unwrap(cause) {
				pathFmt.Fprintf(r.out, "  caused by: %s\n", cause.Error())
			}
		}
	}
}

// Summary prints the closing line of a run
func (r *DiagnosticReporter) Summary(registrations int, diags models.Diagnostics) {
	if r.quiet {
		return
	}
	errs, warns := 0, 0
	for _, d := range diags {
		switch d.Severity {
		case models.SeverityError:
			errs++
		case models.SeverityWarning:
			warns++
		}
	}
	if errs > 0 {
		errorTag.Fprintf(r.out, "%d registrations, %d errors, %d warnings\n", registrations, errs, warns)
		return
	}
	if warns > 0 {
		warningTag.Fprintf(r.out, "%d registrations, %d warnings\n", registrations, warns)
		return
	}
	fmt.Fprintf(r.out, "%d registrations\n", registrations)
}
