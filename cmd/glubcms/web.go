package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lemmi/compress"
	"github.com/lemmi/glubapi/client"
	"github.com/lemmi/glubapi/internal/config"
	"github.com/lemmi/glubapi/render"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve HTML pages rendered from the JSON endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newWebHandler(cfg, logger)
		if err != nil {
			return err
		}
		return listenAndServe(cfg, compress.New(h))
	},
}

func init() {
	addListenFlags(webCmd)
}

type webHandler struct {
	api     *client.Client
	rend    *render.Renderer
	timeout time.Duration
	log     *slog.Logger
	debug   bool
}

func newWebHandler(c config.Config, log *slog.Logger) (*webHandler, error) {
	api, err := client.New(c.APIURL, nil, log)
	if err != nil {
		return nil, err
	}
	return &webHandler{
		api:     api,
		rend:    render.New(log),
		timeout: c.Timeout,
		log:     log,
		debug:   c.Debug,
	}, nil
}

// load fetches the documents for path and query and waits for both.
func load(ctx context.Context, api client.Fetcher, rend *render.Renderer, log *slog.Logger, path, rawQuery string) *client.View {
	v := client.NewView(api, rend, log)
	v.LoadSite(ctx)
	v.Navigate(ctx, path, rawQuery)
	v.Wait()
	return v
}

// pageStatus is the status code to answer with for a page that failed to
// load.
func pageStatus(err error) int {
	var se *client.StatusError
	if errors.As(err, &se) && se.Code >= 400 {
		return se.Code
	}
	return http.StatusBadGateway
}

func (h *webHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(client.RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	log := h.log.With("request_id", id, "path", r.URL.Path)
	w.Header().Set(client.RequestIDHeader, id)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		httpError(w, http.StatusMethodNotAllowed, errors.Errorf("method %s", r.Method), log, h.debug)
		return
	}

	ctx := client.WithRequestID(r.Context(), id)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	v := load(ctx, h.api, h.rend, log, r.URL.Path, r.URL.RawQuery)

	buf := bytes.Buffer{}
	if err := v.Render(&buf); err != nil {
		httpError(w, http.StatusInternalServerError, errors.Wrapf(err, "page generation failed: %q", r.URL.Path), log, h.debug)
		return
	}

	code := http.StatusOK
	if _, state := v.Page(); state == client.Failed {
		code = pageStatus(v.PageErr())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
}
