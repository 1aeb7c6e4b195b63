package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdfcheck/internal/config"
)

// configFlags are the settings that can be given both in the config file
// and on the command line. Flags that were set explicitly win.
type configFlags struct {
	backend  string
	proxy    string
	maxPages int
	minText  int
	timeout  time.Duration
}

func (f *configFlags) register(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVar(&f.backend, "backend", d.Backend, "PDF library: rsc|ledongthuc")
	cmd.Flags().StringVar(&f.proxy, "proxy", d.ProxyPrefix, "CORS proxy prefix for URLs (empty to fetch directly)")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", d.MaxPages, "number of leading pages to sample")
	cmd.Flags().IntVar(&f.minText, "min-text", d.MinTextLength, "a page counts as text when longer than this")
	cmd.Flags().DurationVar(&f.timeout, "timeout", d.Timeout, "per-document timeout (0 for none)")
}

func (g *globalFlags) load(cmd *cobra.Command, f *configFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("proxy") {
		cfg.ProxyPrefix = f.proxy
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
	if flags.Changed("min-text") {
		cfg.MinTextLength = f.minText
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	return cfg, cfg.Validate()
}
