package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/ppiankov/termslens/internal/tui"
	"github.com/spf13/cobra"
)

var (
	chatLocal   bool
	chatLogFile string
	chatStyle   string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [url]",
	Short: "Analyze terms and ask questions interactively",
	Long: `Chat opens the interactive client. Paste a URL and press Enter to
analyze it, then ask follow-up questions in the chat pane.

Keys:
  enter       submit the URL / send the question
  alt+enter   new line in the question
  tab         switch pane
  esc, ctrl+c quit

Logs are written to a file while the client is open.

Example:
  termslens chat
  termslens chat https://example.com/terms
  termslens chat --local --log-file /tmp/termslens.log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&chatLocal, "local", false, "analyze in-process instead of calling the backend")
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "termslens.log", "log file while the client is open")
	chatCmd.Flags().StringVar(&chatStyle, "style", "", "markdown style (dark, light, notty)")
}

func runChat(cmd *cobra.Command, args []string) error {
	// Log lines on stderr would corrupt the screen
	lc := cfg.Logging
	if lc.Output == "" || lc.Output == "stdout" || lc.Output == "stderr" {
		lc.Output = chatLogFile
	}
	setupLogging(lc)

	backend, err := newBackend(cfg, chatLocal)
	if err != nil {
		return err
	}

	opts := tui.Options{MarkdownStyle: chatStyle}
	if len(args) == 1 {
		opts.InitialURL = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.New(ctx, session.New(backend), opts)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run client: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Bye.")
	return nil
}
