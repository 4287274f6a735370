package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg            config
		userID         string
		conversationID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the conversation history",
			Sources:     cli.EnvVars("CHATSANTE_USER"),
			Destination: &userID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "conversation",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID to continue (default: start a new one)",
			Destination: &conversationID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ragFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := c.Args().First()
			if question == "" {
				return goerr.New("question is required")
			}

			cfg.setupLogger()

			session, err := newSession(ctx, &cfg, userID, conversationID)
			if err != nil {
				return err
			}

			msg, askErr := session.Ask(ctx, question)
			if msg != nil {
				printBotMessage(c, msg)
			}
			if askErr != nil {
				return goerr.Wrap(askErr, "failed to process question")
			}
			return nil
		},
	}
}
