package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manebot/manebot/internal/chat"
)

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Runs one command as the console user",
	Long: `Runs one command line as the configured console user and prints the
reply. The command prefix is optional.

Examples:
  manebot exec help
  manebot exec ban list
  manebot exec user search "ali" -bob page:2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, cfg, cleanup, err := openBot()
	if err != nil {
		printError("starting bot", err)
		return err
	}
	defer cleanup()

	if err := b.Start(ctx); err != nil {
		printError("starting plugins", err)
		return err
	}
	defer b.Stop(context.Background())

	line := strings.Join(args, " ")
	if !strings.HasPrefix(line, cfg.Bot.CommandPrefix) {
		line = cfg.Bot.CommandPrefix + line
	}

	console := chat.NewConsole(os.Stdin, os.Stdout, cfg.Bot.ConsoleUser, cfg.Bot.ConsoleUser)
	b.Handle(ctx, &chat.Message{
		Chat:     console,
		Username: cfg.Bot.ConsoleUser,
		Text:     line,
		Received: time.Now(),
	})
	return nil
}
