package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/interviewvault/vault/internal/app"
	"github.com/interviewvault/vault/internal/chat"
	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/log"
)

var askFlags struct {
	userID         string
	userName       string
	conversationID string
	dataFile       string
	verbose        bool
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the career assistant a question",
	Long: `Ask the career assistant a question.

Without --user the question is answered in guest mode: no personal
data is loaded and the answer includes general guidance only. With
--user and --data, the assistant retrieves from your applications and
resume before answering.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askFlags.userID, "user", "", "user ID (empty for guest mode)")
	askCmd.Flags().StringVar(&askFlags.userName, "name", "", "display name used in greetings")
	askCmd.Flags().StringVar(&askFlags.conversationID, "conversation", "", "conversation ID to continue")
	askCmd.Flags().StringVar(&askFlags.dataFile, "data", "", "path to a JSON file with applications and resume")
	askCmd.Flags().BoolVarP(&askFlags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if askFlags.verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var fetcher chat.Fetcher
	if askFlags.dataFile != "" {
		fetcher, err = newFileFetcher(askFlags.dataFile)
		if err != nil {
			return fmt.Errorf("loading user data: %w", err)
		}
	}

	a, err := app.Setup(ctx, cfg, fetcher, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}()

	resp, err := a.Chat.Answer(ctx, chat.Request{
		UserID:         askFlags.userID,
		UserName:       askFlags.userName,
		ConversationID: askFlags.conversationID,
		Message:        strings.Join(args, " "),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
	if len(resp.Citations) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nSources:")
		for _, c := range resp.Citations {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", c.Title, c.URL)
		}
	}
	return nil
}
