package cli

import (
	"context"
	"fmt"

	"github.com/sante-qc/chatsante/pkg/usecase/report"
	"github.com/urfave/cli/v3"
)

func reportCommand() *cli.Command {
	var (
		cfg        config
		reportType string
		outKey     string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Report type (e.g. overview, respiratoire)",
			Value:       "overview",
			Destination: &reportType,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Export key (e.g. reports/2024-01.md); empty prints to stdout",
			Destination: &outKey,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for exports (default: local export directory)",
			Sources:     cli.EnvVars("CHATSANTE_EXPORT_BUCKET"),
			Destination: &cfg.storageBucket,
		},
		&cli.StringFlag{
			Name:        "export-dir",
			Usage:       "Local directory for exports",
			Value:       "exports",
			Sources:     cli.EnvVars("CHATSANTE_EXPORT_DIR"),
			Destination: &cfg.exportDir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ragFlags(&cfg)...)

	return &cli.Command{
		Name:  "report",
		Usage: "Generate a whole-corpus report",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			llm, err := cfg.newLLM(gemini)
			if err != nil {
				return err
			}

			store, err := cfg.newStore(ctx, gemini)
			if err != nil {
				return err
			}

			text, err := report.Generate(ctx, store, llm, reportType)
			if err != nil {
				return err
			}

			if outKey == "" {
				fmt.Fprintln(c.Root().Writer, text)
				return nil
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			if err := report.Export(ctx, storage, outKey, text); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Rapport exporté : %s\n", outKey)
			return nil
		},
	}
}
