package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lemmi/glubapi/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "glubcms",
	Short: "glubcms - a tiny file based cms",
	Long: `glubcms reads pages, blog posts and assets from a directory or a
git branch, serves them as JSON documents and renders those documents
as HTML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./glubcms.yaml)")
	pf.String("prefix", ".", "path to the root dir")
	pf.Bool("git", false, "prefix is a git repo")
	pf.String("branch", "master", "branch to serve if prefix is a git repo")
	pf.String("base-url", "http://localhost:8080", "public url of the site, used for links and assets")
	pf.String("api-url", "http://localhost:8080", "url the JSON endpoints are served at")
	pf.Duration("timeout", 10*time.Second, "how long to wait for documents when rendering")
	pf.Bool("debug", false, "set debug output")

	rootCmd.AddCommand(serveCmd, webCmd, renderCmd, newCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	c, used, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if used != "" {
		logger.Debug("Using config file", "file", used)
	}
	return nil
}
