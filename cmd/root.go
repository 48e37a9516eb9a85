package cmd

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/skyrrd/alexandria/internal/config"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the alexandria application
type CLI struct {
	// Global flags
	Proxy    string `help:"Content proxy gateway URL; outbound requests are rewritten to <proxy>?url=<target>"`
	Retries  int    `help:"HTTP attempts per request before giving up" default:"3"`
	Timeout  string `help:"Per-attempt HTTP timeout (e.g. 15s)" default:"15s"`
	PageSize int    `help:"Number of results per combined page" default:"20"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`

	// Storage flags
	OfflineDB string `help:"Path to offline cache SQLite database" default:"./offline.db"`
	LibraryDB string `help:"Path to library SQLite database" default:"./library.db"`
	User      string `help:"Library user to operate as" default:"local"`
	CoversDir string `help:"Directory for downloaded cover images" default:"./covers/"`

	Browse  BrowseCmd  `cmd:"" help:"Browse popular books across all catalogs"`
	Search  SearchCmd  `cmd:"" help:"Search all catalogs for books"`
	Read    ReadCmd    `cmd:"" help:"Fetch the full text of a book by identifier"`
	Library LibraryCmd `cmd:"" help:"Manage the personal library"`
	Offline OfflineCmd `cmd:"" help:"Manage the offline cache"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("alexandria"),
		kong.Description("A reading client that aggregates public-domain book catalogs."),
		kong.UsageOnError(),
	)

	if cli.Verbose {
		initLogging(slog.LevelDebug)
	}

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("proxy.url", "ALEXANDRIA_PROXY_URL"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	if cli.Proxy != "" {
		config.SetProxyURL(cli.Proxy)
	}
	if cli.User != "" {
		config.UserID = cli.User
	}

	viper.Set("offline.dbfile", cli.OfflineDB)
	viper.Set("library.dbfile", cli.LibraryDB)
	viper.Set("covers.dir", cli.CoversDir)
	viper.Set("page_size", cli.PageSize)
	viper.Set("http.timeout", cli.Timeout)
	viper.Set("http.retries", cli.Retries)
}

func initLogging(level slog.Level) {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
