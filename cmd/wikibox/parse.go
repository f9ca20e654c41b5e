package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/wikibox/internal/domain"
)

func newParseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse infoboxes from a local wikitext file, or stdin with -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read wikitext: %w", err)
			}

			res := c.parser().Parse(string(data))
			for _, f := range res.Faults {
				c.log.Warn("parser fault",
					slog.Int("line", f.Line),
					slog.String("field", f.Field),
					slog.String("reason", f.Reason),
				)
			}

			var doc any
			switch len(res.Templates) {
			case 0:
				doc = map[string]domain.Fields{}
			case 1:
				doc = res.Infoboxes[res.Templates[0]]
			default:
				doc = res.Infoboxes
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
}
