package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"legalresearch-backend/config"
	"legalresearch-backend/models"
	"legalresearch-backend/service"

	"github.com/spf13/cobra"
)

const (
	defaultSearchLimit = 5
	lookupTimeout      = 60 * time.Second
	textPreviewChars   = 500
)

var errNotFound = errors.New("citation not found")

// clientFactory builds the case-law client from the resolved flag values
type clientFactory func(baseURL, apiKey string) service.CaseLawClient

type lookupFlags struct {
	baseURL  string
	apiKey   string
	fullText bool
	limit    int
}

func newRootCmd(out io.Writer, newClient clientFactory, cfg *config.Config) *cobra.Command {
	flags := &lookupFlags{}

	root := &cobra.Command{
		Use:   "citation-lookup",
		Short: "Resolve legal citations against CourtListener",
		Long: `citation-lookup runs the citation pipeline from the command line.

Examples:
  citation-lookup resolve "410 U.S. 113"
  citation-lookup resolve --full "Roe v. Wade"
  citation-lookup search --limit 3 "qualified immunity"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", cfg.CourtListenerBaseURL, "CourtListener base URL")
	root.PersistentFlags().StringVar(&flags.apiKey, "api-key", cfg.CourtListenerAPIKey, "CourtListener API token")

	resolveCmd := &cobra.Command{
		Use:   "resolve <citation>",
		Short: "Resolve a citation and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, flags, newClient, strings.Join(args, " "))
		},
	}
	resolveCmd.Flags().BoolVar(&flags.fullText, "full", false, "Print the full opinion text")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a full-text opinion search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, newClient, strings.Join(args, " "))
		},
	}
	searchCmd.Flags().IntVarP(&flags.limit, "limit", "l", defaultSearchLimit, "Maximum number of results")

	root.AddCommand(resolveCmd, searchCmd)
	return root
}

func runResolve(cmd *cobra.Command, flags *lookupFlags, newClient clientFactory, citation string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
	defer cancel()

	citations := service.NewCitationService(newClient(flags.baseURL, flags.apiKey))
	result := citations.HandleCitationQuery(ctx, citation)
	if !flags.fullText {
		truncateText(result)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.ResolutionStatus() == models.StatusNotFound {
		return errNotFound
	}
	return nil
}

func runSearch(cmd *cobra.Command, flags *lookupFlags, newClient clientFactory, query string) error {
	if flags.limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", flags.limit)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
	defer cancel()

	hits := newClient(flags.baseURL, flags.apiKey).Search(ctx, query, flags.limit)
	if len(hits) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", query)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCITATION\tCASE\tURL")
	for _, hit := range hits {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", hit.ID, hit.Citation.First("-"), hit.CaseName, service.OpinionURL(hit.ID))
	}
	return w.Flush()
}

// truncateText shortens the opinion text so results stay readable in a terminal
func truncateText(result models.ResolutionResult) {
	switch r := result.(type) {
	case *models.SingleResult:
		r.Text = preview(r.Text)
	case *models.SearchResult:
		r.Text = preview(r.Text)
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= textPreviewChars {
		return text
	}
	return string(runes[:textPreviewChars]) + "..."
}
