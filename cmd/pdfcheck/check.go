package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdfcheck/internal/check"
	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
	"github.com/thywilljoshua/pdfcheck/internal/source"
	"github.com/thywilljoshua/pdfcheck/internal/status"
)

func checkCmd(g *globalFlags) *cobra.Command {
	var flags configFlags
	var asJSON bool
	var requireText bool

	cmd := &cobra.Command{
		Use:   "check <url-or-file>...",
		Short: "Check PDFs for an extractable text layer",
		Example: `  pdfcheck check scan.pdf report.pdf
  pdfcheck check https://example.com/paper.pdf --proxy ""`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd, &flags)
			if err != nil {
				return err
			}

			refs := make([]source.Ref, len(args))
			for i, arg := range args {
				if refs[i], err = source.Parse(arg); err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
			}

			printer := status.NewPrinter(cmd.ErrOrStderr())
			cc := cfg.Check(pdflib.Default())
			results := make([]check.Result, len(refs))

			// Every input is its own check; none waits for another.
			var wg sync.WaitGroup
			for i, ref := range refs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ctx := cmd.Context()
					if cfg.Timeout > 0 {
						var cancel context.CancelFunc
						ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
						defer cancel()
					}
					results[i] = check.Run(ctx, ref, cc, printer.For(ref.Label()))
				}()
			}
			wg.Wait()

			if asJSON {
				b, _ := json.MarshalIndent(results, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			}

			failed, noText := 0, 0
			for _, r := range results {
				switch {
				case r.Failed():
					failed++
				case !r.HasText:
					noText++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			if requireText && noText > 0 {
				return fmt.Errorf("%d of %d PDFs have no extractable text", noText, len(results))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON on stdout")
	cmd.Flags().BoolVar(&requireText, "require-text", false, "exit non-zero when a PDF has no extractable text")
	return cmd
}
