package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/service"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the results site for clubs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := newClubService().Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <club-url>",
	Short: "Fetch details, league table and fixtures of one club",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, _, err := newClubService().Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(snapshot)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// newClubService builds a cache-less club service over plain HTTP
func newClubService() *service.ClubService {
	scraper := site.NewScraper(site.NewClient(cfg.FetchTimeout).WithUserAgent(cfg.UserAgent), cfg.BaseURL)
	return service.NewClubService(site.NewIngester(scraper, cfg.CurrentSeason), nil, 0)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
