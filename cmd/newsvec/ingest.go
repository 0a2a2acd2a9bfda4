package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec"
)

func newIngestCmd(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "ingest <feed-url>...",
		Short: "Fetch feeds once and store new articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := feedsFromArgs(args, source)
			if err != nil {
				return err
			}

			client, err := newsvec.New(cmd.Context(), clientOptions(&a.cfg, a.logger)...)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer client.Close()

			st, err := client.IngestFeeds(cmd.Context(), feeds)
			if err != nil {
				return err
			}
			a.logger.Info("Ingestion finished",
				zap.Int("sources", st.ProcessedSources),
				zap.Int("items", st.TotalItems),
				zap.Int("new", st.NewItems),
				zap.Int("duplicates", st.Duplicates),
				zap.Int("errors", st.Errors),
			)
			fmt.Fprintln(cmd.OutOrStdout(), st.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source id for every feed (default: feed host)")
	return cmd
}

// feedsFromArgs validates feed URLs. Without an explicit source each feed is
// attributed to its host.
func feedsFromArgs(args []string, source string) ([]newsvec.Feed, error) {
	feeds := make([]newsvec.Feed, 0, len(args))
	for _, raw := range args {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid feed url %q", raw)
		}
		id := source
		if id == "" {
			id = u.Hostname()
		}
		feeds = append(feeds, newsvec.Feed{SourceID: id, URL: raw})
	}
	return feeds, nil
}
