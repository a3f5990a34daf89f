package main

import (
	"log/slog"

	"github.com/nao1215/prodcheck/internal/config"
	"github.com/nao1215/prodcheck/internal/fetcher"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addFetchFlags registers the flags that configure the catalog request.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("url", "u", config.DefaultURL,
		"Catalog endpoint returning a JSON array of products")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of the catalog request")
	cmd.Flags().String("proxy", "",
		"Send the catalog request through a SOCKS5 proxy (host:port)")
	cmd.Flags().StringToStringP("header", "H", nil,
		"Extra request header as Name=Value (repeatable)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header of the catalog request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of records validated at once")
}

// addStorageFlags registers the configuration file and history flags.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .prodcheck in current, home or XDG config directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not save runs to the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags the user set explicitly, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	cfg.Verbose = getVerboseFlag(cmd)

	if flags.Lookup("config") != nil {
		path, err := flags.GetString("config")
		if err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}

	if _, err := config.Load(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies every explicitly set flag into cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	stringFlags := map[string]*string{
		"url":              &cfg.URL,
		"proxy":            &cfg.ProxyAddress,
		"user-agent":       &cfg.UserAgent,
		"output":           &cfg.Output,
		"synthetic-output": &cfg.SyntheticOutput,
		"markdown":         &cfg.MarkdownFile,
		"db-dir":           &cfg.DBDir,
		"schedule":         &cfg.Schedule,
		"metrics-addr":     &cfg.MetricsAddr,
	}
	for name, dst := range stringFlags {
		if !changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	boolFlags := map[string]*bool{
		"skip-live":      &cfg.SkipLive,
		"skip-synthetic": &cfg.SkipSynthetic,
		"color":          &cfg.Color,
	}
	for name, dst := range boolFlags {
		if !changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	intFlags := map[string]*int{
		"concurrency": &cfg.Concurrency,
		"keep":        &cfg.KeepRuns,
	}
	for name, dst := range intFlags {
		if !changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = v
	}

	if changed("header") {
		headers, err := flags.GetStringToString("header")
		if err != nil {
			return err
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}

	if changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}

	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newFetcher creates the catalog client described by cfg.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	client, err := fetcher.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return nil, err
	}

	return fetcher.New(client,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLogger(logger),
	), nil
}
