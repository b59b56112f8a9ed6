package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/termslens/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis backend",
	Long: `Serve starts the HTTP backend the client talks to:
- POST /analyze  fetch a terms page and return its structured analysis
- POST /ask      answer a question about an analyzed page
- GET  /health   report backend and LLM provider health

Example:
  termslens serve
  termslens serve --addr 127.0.0.1:8080 --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: 0.0.0.0:5000)")
	serveCmd.Flags().Bool("no-robots", false, "ignore robots.txt when fetching pages")
	serveCmd.Flags().Bool("no-cache", false, "disable the page and analysis cache")
	serveCmd.Flags().String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	serveCmd.Flags().String("llm-model", "", "LLM model name")
	serveCmd.Flags().Bool("insecure", false, "skip TLS certificate verification when fetching pages")

	// Bound so provider API key resolution sees the chosen provider
	_ = viper.BindPFlag("llm.provider", serveCmd.Flags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", serveCmd.Flags().Lookup("llm-model"))
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if addr, _ := flags.GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if noRobots, _ := flags.GetBool("no-robots"); noRobots {
		cfg.Server.RespectRobots = false
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if insecure, _ := flags.GetBool("insecure"); insecure {
		cfg.HTTP.InsecureTLS = true
	}

	analyzer, provider, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	checks := map[string]server.HealthChecker{
		"llm": server.CheckFunc(func(ctx context.Context) error {
			if !provider.IsAvailable(ctx) {
				return fmt.Errorf("%s provider unavailable", provider.Name())
			}
			return nil
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithFields(logrus.Fields{
		"provider": provider.Name(),
		"model":    cfg.LLM.Model,
		"robots":   cfg.Server.RespectRobots,
		"cache":    cfg.Cache.Enabled,
	}).Info("Starting analysis backend")

	if err := server.New(analyzer, cfg.Server, checks).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
