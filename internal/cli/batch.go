package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/termslens/internal/render"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/ppiankov/termslens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchLocal   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple terms pages from a file in parallel",
	Long: `Batch analyzes many URLs concurrently:
- Read URLs from input file (one per line, # starts a comment)
- Analyze URLs in parallel with configurable worker count
- Write an HTML report and the raw analysis JSON for each URL

Example:
  termslens batch urls.txt
  termslens batch urls.txt --concurrency 8 --output-dir ./reports
  termslens batch urls.txt --local --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./termslens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchLocal, "local", false, "analyze in-process instead of calling the backend")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Client.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  termslens batch analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	backend, err := newBackend(cfg, batchLocal)
	if err != nil {
		return err
	}

	// The in-process engine limits its own fetches per domain
	var rps float64
	var burst int
	if !batchLocal {
		rps, burst = cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize
	}
	processor := worker.NewBatchProcessor(backend, workers, rps, burst)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing URLs with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount, failureCount := 0, 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		path, err := writeReport(outputDir, result)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%d user types, %d notices, %v)\n",
			result.URL, path, len(result.Analysis.UserTypes), len(result.Analysis.ImportantNotices),
			result.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeReport writes <slug>.html and <slug>.json for one analysis and
// returns the HTML path
func writeReport(dir string, result *worker.AnalyzeResult) (string, error) {
	st := session.State{
		URL:         result.URL,
		AnalyzedURL: result.URL,
		Analysis:    result.Analysis,
		Context:     result.Analysis.Raw,
	}
	page, err := render.HTML(render.Project(st))
	if err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}

	slug := reportName(result.URL)
	htmlPath := filepath.Join(dir, slug+".html")
	if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write HTML: %w", err)
	}
	if len(result.Analysis.Raw) > 0 {
		if err := os.WriteFile(filepath.Join(dir, slug+".json"), result.Analysis.Raw, 0o644); err != nil {
			return "", fmt.Errorf("write JSON: %w", err)
		}
	}
	return htmlPath, nil
}

// reportName turns a URL into a file name: host and path, with anything
// outside [A-Za-z0-9._-] replaced
func reportName(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		s = u.Host + strings.TrimSuffix(u.Path, "/")
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_.")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}
