package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
	"github.com/thywilljoshua/pdfcheck/internal/server"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var flags configFlags
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web page to check PDFs by URL or by dropping files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}

			ctx := cmd.Context()
			ln, err := server.Listen(ctx, cfg.Listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
			}

			s := server.New(ctx, cfg.Check(pdflib.Default()), cfg.Timeout)
			fmt.Fprintln(cmd.OutOrStdout(), "Listening on "+ln.Addr().String())
			return s.Serve(ctx, ln)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "address to listen on (host:port or unix:///path/to/socket)")
	return cmd
}
