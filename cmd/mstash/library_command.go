package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
)

type listPage struct {
	Items  []map[string]any `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

var listColumns = map[string][]string{
	"movies": {"id", "title", "year"},
	"shows":  {"id", "title", "year"},
	"comics": {"id", "title", "author"},
	"ebooks": {"id", "title", "author"},
}

func newLibraryCommand(configFlag *string) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the media library",
	}
	libraryCmd.AddCommand(newLibraryListCommand(configFlag))
	return libraryCmd
}

func newLibraryListCommand(configFlag *string) *cobra.Command {
	var (
		limit  int
		offset int
		filter string
	)

	cmd := &cobra.Command{
		Use:       "list <movies|shows|comics|ebooks>",
		Short:     "List library entries via the running daemon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"movies", "shows", "comics", "ebooks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			columns, ok := listColumns[collection]
			if !ok {
				return fmt.Errorf("unknown collection %q", collection)
			}

			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			page, err := fetchPage(cfg, collection, limit, offset, filter)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(page.Items))
			for _, item := range page.Items {
				row := make([]string, len(columns))
				for i, column := range columns {
					row[i] = formatCell(item[column])
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderRows(columns, rows))
			fmt.Fprintf(out, "%d of %d %s\n", len(page.Items), page.Total, collection)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter by title substring")
	return cmd
}

func fetchPage(cfg *config.Config, collection string, limit, offset int, filter string) (*listPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if filter != "" {
		query.Set("q", filter)
	}

	endpoint := url.URL{
		Scheme:   "http",
		Host:     cfg.Paths.APIBind,
		Path:     "/api/" + collection,
		RawQuery: query.Encode(),
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("contact daemon at %s (is mstashd running?): %w", cfg.Paths.APIBind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %s", resp.Status)
	}

	var page listPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
