package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/lemmi/compress"
	"github.com/lemmi/glubapi/assets"
	"github.com/lemmi/glubapi/backend"
	"github.com/lemmi/glubapi/content"
	"github.com/lemmi/glubapi/endpoint"
	"github.com/lemmi/glubapi/internal/config"
	"github.com/lemmi/glubapi/store"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON endpoints, static files and metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newAPIHandler(cfg, logger)
		if err != nil {
			return err
		}
		return listenAndServe(cfg, h)
	},
}

func addListenFlags(cmd *cobra.Command) {
	cmd.Flags().String("bind", "localhost:8080", "address or path to bind to")
	cmd.Flags().String("net", "tcp", `"tcp", "tcp4", "tcp6", "unix" or "unixpacket"`)
}

func init() {
	addListenFlags(serveCmd)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func httpError(w http.ResponseWriter, code int, logErr error, log *slog.Logger, debug bool) {
	log.Error("request failed", "code", code, "error", logErr)
	if debug {
		var st stackTracer
		if errors.As(logErr, &st) {
			log.Debug("stack trace", "trace", fmt.Sprintf("%+v", st.StackTrace()))
		}
	}
	http.Error(w, http.StatusText(code), code)
}

// apiHandler opens the backend for every request, so a git backend always
// serves the newest commit of its branch.
type apiHandler struct {
	cfg  config.Config
	urls *assets.URLBuilder
	log  *slog.Logger
}

func (h apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, err := backend.Open(h.cfg.Prefix, h.cfg.Git, h.cfg.Branch)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err, h.log, h.cfg.Debug)
		return
	}
	if c, ok := b.(backend.CIDer); ok {
		w.Header().Set("ETag", c.CID())
	}

	st := store.New(b, h.log)
	site := endpoint.Site{
		Store:  st,
		Assets: h.urls,
		URLs:   h.urls,
		Blocks: content.New(h.urls),
	}
	reg, err := site.Registry()
	if err != nil {
		httpError(w, http.StatusInternalServerError, err, h.log, h.cfg.Debug)
		return
	}

	files := assets.NewFiles(b)
	static := files.Sub(store.StaticDir)

	mux := http.NewServeMux()
	mux.Handle("/static/", files)
	mux.Handle("/robots.txt", static)
	mux.Handle("/favicon.ico", static)
	mux.Handle("/", endpoint.NewHandler(endpoint.NewResolver(reg, st), h.log, h.cfg.Debug))
	w.Header().Set("Cache-Control", "max-age=32")
	mux.ServeHTTP(w, r)
}

func newAPIHandler(c config.Config, log *slog.Logger) (http.Handler, error) {
	urls, err := assets.NewURLBuilder(c.BaseURL)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler{cfg: c, urls: urls, log: log})
	return compress.New(mux), nil
}

func listen(network, addr string) (net.Listener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot listen on %s %q", network, addr)
	}
	if strings.HasPrefix(network, "unix") {
		if err := os.Chmod(addr, 0666); err != nil {
			ln.Close()
			return nil, errors.Wrapf(err, "Cannot chmod %q", addr)
		}
	}
	return ln, nil
}

func listenAndServe(c config.Config, h http.Handler) error {
	ln, err := listen(c.Net, c.Bind)
	if err != nil {
		return err
	}
	defer ln.Close()
	logger.Info("Starting", "network", c.Net, "addr", c.Bind)
	logger.Debug("config", "prefix", c.Prefix, "git", c.Git, "branch", c.Branch,
		"base_url", c.BaseURL, "api_url", c.APIURL)
	return http.Serve(ln, h)
}
