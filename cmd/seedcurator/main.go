package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"seedcurator/internal/config"
	"seedcurator/internal/controller"
	"seedcurator/internal/rpcclient"
	"seedcurator/pkg/version"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	cfgFile  string
	lockFile string
	debug    bool
	dryRun   bool

	rootCmd = &cobra.Command{
		Use:   "seedcurator",
		Short: "seedcurator categorizes finished torrents and maintains seed-directory disk usage",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a new config file scaffold",
		RunE:  runInit,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one maintenance tick (cleaner, quota, resume)",
		RunE:  runMaintenanceTick,
	}

	doneCmd = &cobra.Command{
		Use:   "done",
		Short: "Handle a torrent-done callback from the daemon",
		Long:  "Reads TR_TORRENT_ID, TR_TORRENT_NAME, and TR_TORRENT_DIR from the environment, as set by the daemon's torrent-done script hook.",
		RunE:  runTorrentDone,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		RunE:  runVersion,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&lockFile, "lock-file", "/run/seedcurator.lock", "advisory lock file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "override dry-run: report obsolete paths without deleting them")

	rootCmd.AddCommand(initCmd, runCmd, doneCmd, versionCmd)
}

func findConfig() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if _, err := os.Stat("seedcurator.yaml"); err == nil {
		return "seedcurator.yaml", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	configPath := filepath.Join(home, ".config", "seedcurator", "seedcurator.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}
	return "", fmt.Errorf("no config file found in current directory or %s", configPath)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := findConfig()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	return cfg, nil
}

func newRPCClient(cfg *config.Config) *rpcclient.Client {
	url := fmt.Sprintf("http://%s:%d%s", cfg.RPCURL, cfg.RPCPort, cfg.RPCPath)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.RPCUsername != "" {
		httpClient.Transport = &basicAuthTransport{
			username: cfg.RPCUsername,
			password: cfg.RPCPassword,
			base:     http.DefaultTransport,
		}
	}
	return rpcclient.New(url, httpClient)
}

type basicAuthTransport struct {
	username, password string
	base               http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not determine home directory: %w", err)
		}
		dir := filepath.Join(home, ".config", "seedcurator")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create config directory: %w", err)
		}
		path = filepath.Join(dir, "seedcurator.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	data, err := config.Scaffold()
	if err != nil {
		return fmt.Errorf("failed to build config scaffold: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Str("path", path).Msg("wrote new config file")
	log.Info().Msg("edit the config file and point it at your daemon and asset paths")
	return nil
}

func runMaintenanceTick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rpc := newRPCClient(cfg)
	ctrl := controller.New(cfg, rpc, lockFile)
	return ctrl.Run(context.Background(), controller.Trigger{TorrentDone: false})
}

func runTorrentDone(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(os.Getenv("TR_TORRENT_ID"), 10, 64)
	if err != nil {
		return fmt.Errorf("TR_TORRENT_ID is not set or not an integer: %w", err)
	}

	rpc := newRPCClient(cfg)
	ctrl := controller.New(cfg, rpc, lockFile)
	return ctrl.Run(context.Background(), controller.Trigger{
		TorrentDone: true,
		TorrentID:   id,
		Name:        os.Getenv("TR_TORRENT_NAME"),
		DownloadDir: os.Getenv("TR_TORRENT_DIR"),
	})
}

func runVersion(cmd *cobra.Command, args []string) error {
	return version.CheckForUpdates("example", "seedcurator")
}
