package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage conversation history",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
		},
	}
}

func userFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "user",
		Aliases:     []string{"u"},
		Usage:       "User ID owning the conversation history",
		Sources:     cli.EnvVars("CHATSANTE_USER"),
		Destination: dest,
		Required:    true,
	}
}

func historyListCommand() *cli.Command {
	var (
		cfg    config
		userID string
	)

	flags := append([]cli.Flag{userFlag(&userID)}, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List conversations of a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			conversations, err := repo.Load(ctx, userID)
			if err != nil {
				return err
			}

			if len(conversations) == 0 {
				fmt.Fprintf(c.Root().Writer, "No conversations found for %s\n", userID)
				return nil
			}

			for _, conv := range conversations {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%d messages\n", conv.ID, conv.Title, len(conv.Messages))
			}
			return nil
		},
	}
}

func historyShowCommand() *cli.Command {
	var (
		cfg            config
		userID         string
		conversationID string
	)

	flags := append([]cli.Flag{
		userFlag(&userID),
		&cli.StringFlag{
			Name:        "conversation",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID to display",
			Destination: &conversationID,
			Required:    true,
		},
	}, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Display a conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			conversations, err := repo.Load(ctx, userID)
			if err != nil {
				return err
			}

			for _, conv := range conversations {
				if conv.ID != model.ConversationID(conversationID) {
					continue
				}
				fmt.Fprintf(c.Root().Writer, "%s (%s)\n\n", conv.Title, conv.ID)
				for _, msg := range conv.Messages {
					label := "Utilisateur"
					if msg.Role == model.RoleBot {
						label = "Assistant"
					}
					if msg.Kind == model.KindGraph {
						fmt.Fprintf(c.Root().Writer, "%s : [graphique] %s\n", label, msg.Content)
						continue
					}
					fmt.Fprintf(c.Root().Writer, "%s : %s\n", label, msg.Content)
				}
				return nil
			}

			return goerr.Wrap(model.ErrNotFound, "conversation not found",
				goerr.V("conversation_id", conversationID))
		},
	}
}

func historyDeleteCommand() *cli.Command {
	var (
		cfg            config
		userID         string
		conversationID string
	)

	flags := append([]cli.Flag{
		userFlag(&userID),
		&cli.StringFlag{
			Name:        "conversation",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID to delete",
			Destination: &conversationID,
			Required:    true,
		},
	}, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			conversations, err := repo.Load(ctx, userID)
			if err != nil {
				return err
			}

			kept := conversations[:0]
			found := false
			for _, conv := range conversations {
				if conv.ID == model.ConversationID(conversationID) {
					found = true
					continue
				}
				kept = append(kept, conv)
			}
			if !found {
				return goerr.Wrap(model.ErrNotFound, "conversation not found",
					goerr.V("conversation_id", conversationID))
			}

			if err := repo.Save(ctx, userID, kept); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Conversation %s supprimée\n", conversationID)
			return nil
		},
	}
}
