package main

import (
	"context"
	"strings"

	"github.com/lemmi/glubapi/client"
	"github.com/lemmi/glubapi/render"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render PATH",
	Short: "Render one page to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := client.New(cfg.APIURL, nil, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		path, query, _ := strings.Cut(args[0], "?")
		v := load(ctx, api, render.New(logger), logger, path, query)
		if err := v.Render(cmd.OutOrStdout()); err != nil {
			return err
		}
		if _, state := v.Page(); state == client.Failed {
			return errors.Wrapf(v.PageErr(), "Cannot load %q", args[0])
		}
		return nil
	},
}

