package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Credentials commonly live in a .env file next to the binary; flags and
	// real environment variables take precedence.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "chatsante",
		Usage: "Health statistics chat assistant for Québec",
		Commands: []*cli.Command{
			chatCommand(),
			askCommand(),
			reportCommand(),
			historyCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
