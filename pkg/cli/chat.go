package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
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
		Name:  "chat",
		Usage: "Interactive question answering over the health corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			session, err := newSession(ctx, &cfg, userID, conversationID)
			if err != nil {
				return err
			}

			rl, err := readline.New("vous> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize input")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Conversation %s. Tapez 'exit' pour quitter.\n", session.Conversation().ID)

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " Réflexion en cours..."

			for {
				line, err := rl.Readline()
				if err != nil {
					// Interrupt or EOF ends the session
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						break
					}
					return goerr.Wrap(err, "failed to read input")
				}

				question := strings.TrimSpace(line)
				if question == "exit" {
					break
				}
				if question == "" {
					continue
				}

				sp.Start()
				msg, askErr := session.Ask(ctx, question)
				sp.Stop()

				if msg != nil {
					printBotMessage(c, msg)
				}
				if askErr != nil {
					fmt.Fprintf(c.Root().ErrWriter, "erreur : %s\n", askErr)
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nConversation enregistrée (%s)\n", session.Conversation().ID)
			return nil
		},
	}
}

func newSession(ctx context.Context, cfg *config, userID, conversationID string) (*chat.Session, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	llm, err := cfg.newLLM(gemini)
	if err != nil {
		return nil, err
	}

	store, err := cfg.newStore(ctx, gemini)
	if err != nil {
		return nil, err
	}

	return chat.New(ctx, chat.NewInput{
		Repo:           repo,
		LLM:            llm,
		Embedder:       gemini,
		Store:          store,
		UserID:         userID,
		ConversationID: model.ConversationID(conversationID),
		Threshold:      cfg.ragThreshold,
		TopK:           int(cfg.ragTopK),
	})
}

func printBotMessage(c *cli.Command, msg *model.Message) {
	if msg.Kind == model.KindGraph {
		fmt.Fprintf(c.Root().Writer, "[graphique] %s\n", msg.Content)
		return
	}
	fmt.Fprintf(c.Root().Writer, "%s\n", msg.Content)
}
