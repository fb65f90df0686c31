package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/midas-viewer/internal/logging"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/poller"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/internal/upstream"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch once and write a standalone HTML page",
		Long: `Fetch conversations and treasury once and write a page that works
without the server. Failed fetches render the same fallbacks as the live page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			st := store.New()
			client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout())
			p := poller.New(client, st, logging.Component(logger, "poller"))

			p.LoadAll(cmd.Context())

			page, err := render.NewPage(cfg.View.TemplatePath, logging.Component(logger, "page"))
			if err != nil {
				return err
			}
			renderer := render.New(cfg.View.StartupHint, cfg.View.Location())
			state := st.Snapshot()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := page.Execute(w, render.PageData{
				View:   renderer.Render(state),
				Modals: renderer.Modals(state.Conversations),
			}); err != nil {
				return err
			}
			if out != "" {
				logger.Info().Str("path", out).Int("conversations", len(state.Conversations)).Msg("snapshot written")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
