package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/termslens/internal/api"
	"github.com/ppiankov/termslens/internal/render"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	outHTML   string
	outJSON   string
	questions []string
	localMode bool
	width     int
	mdStyle   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a single terms page and print the result",
	Long: `Analyze submits one URL to the backend and prints:
- a plain-language summary of the terms
- what applies to each kind of user (public, developer, business, student, minor)
- important notices and red flags

Follow-up questions can be asked in the same run with --ask.

Example:
  termslens analyze https://example.com/terms
  termslens analyze https://example.com/terms --html report.html --json analysis.json
  termslens analyze https://example.com/terms --ask "Can I use this commercially?"
  termslens analyze https://example.com/terms --local`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outHTML, "html", "", "write the analysis as an HTML page to this path")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the raw analysis JSON to this path")
	analyzeCmd.Flags().StringArrayVar(&questions, "ask", nil, "question to ask after the analysis (repeatable)")
	analyzeCmd.Flags().BoolVar(&localMode, "local", false, "analyze in-process instead of calling the backend")
	analyzeCmd.Flags().IntVar(&width, "width", 0, "render width (default: terminal width)")
	analyzeCmd.Flags().StringVar(&mdStyle, "style", "", "markdown style (dark, light, notty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout*time.Duration(1+len(questions)))
	defer cancel()

	backend, err := newBackend(cfg, localMode)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", url)
		fmt.Fprintf(os.Stderr, "Backend:   %s\n\n", backendLabel(backend))
	}

	return analyzeURL(ctx, backend, url, analyzeOptions{
		HTMLPath:  outHTML,
		JSONPath:  outJSON,
		Questions: questions,
		Render:    render.TerminalOptions{Width: renderWidth(), Style: mdStyle},
	}, os.Stdout, os.Stderr)
}

type analyzeOptions struct {
	HTMLPath  string
	JSONPath  string
	Questions []string
	Render    render.TerminalOptions
}

// analyzeURL runs one analysis and its questions, printing the result to
// stdout and progress to stderr. A failed analysis still prints (and
// writes) the fallback result; the failure is reported as a warning.
func analyzeURL(ctx context.Context, backend session.Backend, url string, o analyzeOptions, stdout, stderr io.Writer) error {
	sess := session.New(backend)

	out := sess.Analyze(ctx, url)
	if out.Err != nil {
		fmt.Fprintf(stderr, "Warning: analysis of %s failed: %v\n\n", url, out.Err)
	}

	fmt.Fprintln(stdout, render.Terminal(render.Project(sess.Snapshot()), o.Render))

	for _, q := range o.Questions {
		res, err := sess.Ask(ctx, q)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: question %q failed: %v\n", q, err)
			continue
		}
		if !res.Sent {
			fmt.Fprintf(stderr, "Skipped question %q: blank, or no analysis to ask about\n", q)
			continue
		}
		if !res.Applied {
			continue
		}
		fmt.Fprintf(stdout, "Q: %s\n", res.Entry.Question)
		fmt.Fprintln(stdout, render.Markdown(res.Entry.Answer, o.Render))
	}

	st := sess.Snapshot()
	if o.JSONPath != "" {
		if len(st.Context) == 0 {
			fmt.Fprintf(stderr, "Skipped JSON: no analysis context to write\n")
		} else {
			if err := os.WriteFile(o.JSONPath, st.Context, 0o644); err != nil {
				return fmt.Errorf("write JSON: %w", err)
			}
			fmt.Fprintf(stderr, "✓ JSON written to: %s\n", o.JSONPath)
		}
	}
	if o.HTMLPath != "" {
		page, err := render.HTML(render.Project(st))
		if err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		if err := os.WriteFile(o.HTMLPath, []byte(page), 0o644); err != nil {
			return fmt.Errorf("write HTML: %w", err)
		}
		fmt.Fprintf(stderr, "✓ HTML written to: %s\n", o.HTMLPath)
	}

	return nil
}

func backendLabel(backend session.Backend) string {
	if c, ok := backend.(*api.Client); ok {
		return c.BaseURL()
	}
	return "in-process (" + cfg.LLM.Provider + "/" + cfg.LLM.Model + ")"
}

func renderWidth() int {
	if width > 0 {
		return width
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}
