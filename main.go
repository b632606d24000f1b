package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"animius/internal/browser"
	"animius/internal/config"
	"animius/internal/formatter"
	"animius/internal/log"
	_ "animius/internal/sites/agedm"
	_ "animius/internal/sites/nyafun"
	_ "animius/internal/sites/xifan"
	"animius/internal/source"
	"animius/internal/transport"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var (
	site         string
	outputFormat string
	outputFile   string
	domain       string
	showUI       bool
	proxyURL     string
	timeout      time.Duration
	configPath   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "animius",
		Short:   "Browse anime sites from the command line",
		Version: version,
		Long: `animius aggregates several anime streaming sites behind one interface.
It lists the landing page, the weekly schedule, search results and title
details, and resolves episode pages to a playable stream URL by rendering
them in a headless browser.`,
		Example: `  # List the available sources
  animius sources

  # Weekly schedule from agedm as JSON
  animius week --site agedm -f json

  # Search every source at once
  animius search "葬送的芙莉莲" --all

  # Resolve an episode to a stream URL through a proxy
  animius play --site nyafun --proxy http://127.0.0.1:7890 https://www.nyadm.org/play/1-1-1.html`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&site, "site", "agedm", "Source to query (see 'animius sources')")
	pf.StringVarP(&outputFormat, "format", "f", "text", "Output format (html, text, markdown, json, csv)")
	pf.StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	pf.StringVar(&domain, "domain", "", "Override the base domain of the source")
	pf.BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	pf.StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL for the rendering browser (e.g. http://127.0.0.1:7890)")
	pf.DurationVarP(&timeout, "timeout", "t", 0, "Stream resolution deadline (0 keeps the site's own)")
	pf.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/animius/animius.yaml)")

	rootCmd.AddCommand(
		newSourcesCmd(),
		newHomeCmd(),
		newWeekCmd(),
		newSearchCmd(),
		newDetailCmd(),
		newPlayCmd(),
	)
	return rootCmd
}

// setup loads the config file, lets explicit flags win over it, and applies
// the logging settings.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.Setup(afero.NewOsFs(), configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if err := viper.BindPFlag(config.BrowserProxy, flags.Lookup("proxy")); err != nil {
		return err
	}
	if err := viper.BindPFlag(config.ResolverTimeout, flags.Lookup("timeout")); err != nil {
		return err
	}
	if showUI {
		viper.Set(config.BrowserHeadless, false)
	}
	if err := log.Setup(); err != nil {
		return err
	}

	if outputFile != "" && !flags.Changed("format") {
		if inferred := inferFormatFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if !lo.Contains(formatter.Formats, outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}
	return nil
}

// deps builds the collaborators for one source from the active settings.
func deps(name string) source.Deps {
	base := viper.GetString(config.SourceDomain(name))
	if domain != "" && strings.EqualFold(name, site) {
		base = domain
	}

	tc := transport.DefaultConfig
	tc.Timeout = viper.GetDuration(config.TransportTimeout)
	tc.Rate = viper.GetFloat64(config.TransportRate)
	tc.Burst = viper.GetInt(config.TransportBurst)
	tc.Retries = viper.GetInt(config.TransportRetries)

	return source.Deps{
		Transport: tc,
		Launch: browser.Launcher(browser.Config{
			Headless: viper.GetBool(config.BrowserHeadless),
			ProxyURL: viper.GetString(config.BrowserProxy),
			Bin:      viper.GetString(config.BrowserBin),
		}),
		ResolveTimeout: viper.GetDuration(config.ResolverTimeout),
		BaseURL:        base,
	}
}

func openSource(name string) (source.Source, error) {
	return source.Open(name, deps(name))
}

// emit formats content and writes it to the output file or stdout.
func emit(content formatter.Content) error {
	out, err := formatter.Format(content, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
		return nil
	}
	fmt.Println(out)
	return nil
}

// inferFormatFromExtension infers output format from file extension
func inferFormatFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}
