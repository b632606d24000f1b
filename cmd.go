package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"animius/internal/formatter"
	"animius/internal/source"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// withSource opens the --site source, runs fn, and closes the source.
func withSource(fn func(s source.Source) (formatter.Content, error)) error {
	s, err := openSource(site)
	if err != nil {
		return err
	}
	defer s.Close()

	content, err := fn(s)
	if err != nil {
		return err
	}
	return emit(content)
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the available sources and their base URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bases := map[string]string{}
			for _, name := range source.Names() {
				s, err := openSource(name)
				if err != nil {
					return err
				}
				bases[name] = s.BaseURL()
				_ = s.Close()
			}
			return emit(&formatter.SourcesContent{Bases: bases})
		},
	}
}

func newHomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the landing page sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(func(s source.Source) (formatter.Content, error) {
				fmt.Fprintf(os.Stderr, "[%s] fetching home page...\n", s.Name())
				sections, err := s.Home(cmd.Context())
				if err != nil {
					return nil, fmt.Errorf("failed to fetch home: %w", err)
				}
				return &formatter.HomeContent{Source: s.Name(), Sections: sections}, nil
			})
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show the weekly airing schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(func(s source.Source) (formatter.Content, error) {
				fmt.Fprintf(os.Stderr, "[%s] fetching schedule...\n", s.Name())
				week, err := s.Week(cmd.Context())
				if err != nil {
					return nil, fmt.Errorf("failed to fetch schedule: %w", err)
				}
				return &formatter.WeekContent{Source: s.Name(), Week: week}, nil
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		page int
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search one source, or every source with --all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			if !all {
				return withSource(func(s source.Source) (formatter.Content, error) {
					fmt.Fprintf(os.Stderr, "[%s] searching %q (page %d)...\n", s.Name(), query, page)
					items, err := s.Search(cmd.Context(), query, page)
					if err != nil {
						return nil, fmt.Errorf("failed to search: %w", err)
					}
					return &formatter.SearchContent{
						Query:   query,
						Page:    page,
						Results: map[string][]source.Summary{s.Name(): items},
					}, nil
				})
			}

			content, err := searchAll(cmd.Context(), query, page)
			if err != nil {
				return err
			}
			return emit(content)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page, starting at 1")
	cmd.Flags().BoolVar(&all, "all", false, "Search every registered source concurrently")
	return cmd
}

// searchAll queries every source concurrently. A failing source is reported
// in the result instead of failing the whole search.
func searchAll(ctx context.Context, query string, page int) (*formatter.SearchContent, error) {
	content := &formatter.SearchContent{
		Query:   query,
		Page:    page,
		Results: map[string][]source.Summary{},
		Errors:  map[string]string{},
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range source.Names() {
		g.Go(func() error {
			s, err := openSource(name)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(os.Stderr, "[%s] searching %q...\n", name, query)
			items, err := s.Search(ctx, query, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(os.Stderr, "[%s] failed: %v\n", name, err)
				content.Errors[name] = err.Error()
				return nil
			}
			content.Results[name] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return content, nil
}

func newDetailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <url>",
		Short: "Show a title page with its episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(func(s source.Source) (formatter.Content, error) {
				fmt.Fprintf(os.Stderr, "[%s] fetching %s...\n", s.Name(), args[0])
				d, err := s.Detail(cmd.Context(), args[0])
				if err != nil {
					return nil, fmt.Errorf("failed to fetch detail: %w", err)
				}
				return &formatter.DetailContent{Source: s.Name(), URL: args[0], Detail: d}, nil
			})
		},
	}
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <episode-url>",
		Short: "Resolve an episode page to a playable stream URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(func(s source.Source) (formatter.Content, error) {
				fmt.Fprintf(os.Stderr, "[%s] resolving %s...\n", s.Name(), args[0])
				pb, err := s.Video(cmd.Context(), args[0])
				if err != nil {
					return nil, fmt.Errorf("failed to resolve stream: %w", err)
				}
				fmt.Fprintf(os.Stderr, "[%s] resolved (%d headers)\n", s.Name(), len(pb.Headers))
				return &formatter.PlaybackContent{Source: s.Name(), Episode: args[0], Playback: pb}, nil
			})
		},
	}
}
