package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/sill/internal/app"
	"github.com/five82/sill/internal/config"
	"github.com/five82/sill/internal/feed"
	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/windows"
)

// client loads the config and builds an API client for one command.
func (f *rootFlags) client() (config.Config, *windows.Client, error) {
	cfg, err := app.LoadConfig(app.Options{ConfigPath: f.configPath, APIURL: f.apiURL})
	if err != nil {
		return config.Config{}, nil, err
	}
	client, err := app.NewClient(cfg, nil, version)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, client, nil
}

// flagName turns a facet key such as openState into open-state.
func flagName(key query.Key) string {
	var b strings.Builder
	for _, r := range string(key) {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func listCmd(flags *rootFlags) *cobra.Command {
	var (
		facets    = map[query.Key]*string{}
		search    string
		duplicate string
		page      int
		limit     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List windows matching the given filters",
		Long: `List one page of windows.

Every facet has its own flag; "all" or an empty value leaves it unset.

Examples:
  sill list --type sliding --material wood
  sill list --search balcony --page 2
  sill list --duplicate true --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := flags.client()
			if err != nil {
				return err
			}

			values := url.Values{}
			for key, value := range facets {
				if *value != "" {
					values.Set(string(key), *value)
				}
			}
			if search != "" {
				values.Set(string(query.KeySearch), search)
			}
			if duplicate != "" {
				dup, err := strconv.ParseBool(duplicate)
				if err != nil {
					return fmt.Errorf("--duplicate must be true or false, got %q", duplicate)
				}
				values.Set(string(query.KeyDuplicate), strconv.FormatBool(dup))
			}
			if page > 1 {
				values.Set("page", strconv.Itoa(page))
			}
			if limit == 0 {
				limit = cfg.PageSize
			}

			f := feed.New(client, query.FromValues(values), config.ClampPageSize(limit))
			f.Run(cmd.Context(), f.Start())
			snap := f.Snapshot()
			if snap.Err != nil {
				return fmt.Errorf("list windows: %s", windows.UserMessage(snap.Err))
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), windows.ListResponse{
					Data:       snap.Result.Windows,
					Total:      snap.Result.Total,
					Page:       snap.Result.Page,
					Limit:      snap.Limit,
					TotalPages: snap.Result.TotalPages,
				})
			}
			return writeListing(cmd.OutOrStdout(), snap)
		},
	}

	for _, facet := range query.Selectable() {
		if facet.Key == query.KeyDuplicate {
			continue
		}
		facets[facet.Key] = cmd.Flags().String(flagName(facet.Key), "", facetUsage(facet))
	}
	cmd.Flags().StringVar(&search, "search", "", "free-text search over descriptions")
	cmd.Flags().StringVar(&duplicate, "duplicate", "", "true for duplicates only, false to exclude them")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size, 1-100 (default page_size from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw API response")
	return cmd
}

func facetUsage(f query.Facet) string {
	values := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o.Value != query.All {
			values = append(values, o.Value)
		}
	}
	return fmt.Sprintf("%s filter (%s)", strings.ToLower(f.Title), strings.Join(values, ", "))
}

func showCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := flags.client()
			if err != nil {
				return err
			}
			w, err := client.GetWindow(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("show %s: %s", args[0], windows.UserMessage(err))
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			writeWindow(cmd.OutOrStdout(), w, cfg.ImageURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw API response")
	return cmd
}

func duplicatesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates <id>",
		Short: "List the records the API marked as duplicates of a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := flags.client()
			if err != nil {
				return err
			}
			items, err := client.ListDuplicates(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("duplicates of %s: %s", args[0], windows.UserMessage(err))
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No duplicates")
				return nil
			}
			fmt.Fprintln(out, windowTable(items))
			return nil
		},
	}
}

func uploadCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a window photograph",
		Long: `Upload an image to the API for analysis.

The file is checked locally first; files that are not images are
rejected without contacting the API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := windows.OpenImage(args[0])
			if err == nil {
				err = img.Validate()
			}
			if err != nil {
				return fmt.Errorf("upload %s: %w", args[0], err)
			}

			cfg, client, err := flags.client()
			if err != nil {
				return err
			}
			w, err := client.UploadWindow(cmd.Context(), img)
			if err != nil {
				return fmt.Errorf("upload %s: %s", args[0], windows.UserMessage(err))
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			writeWindow(cmd.OutOrStdout(), w, cfg.ImageURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw API response")
	return cmd
}

func healthCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := flags.client()
			if err != nil {
				return err
			}
			h, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %s", cfg.APIURL, windows.UserMessage(err))
			}
			if !h.OK() {
				return fmt.Errorf("%s: status %q", cfg.APIURL, h.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.APIURL, h.Status)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeListing(w io.Writer, snap feed.Snapshot) error {
	if snap.Empty() {
		if !snap.Filtered() {
			fmt.Fprintln(w, "No windows available at the moment.")
		} else {
			fmt.Fprintln(w, "No windows found. Try adjusting your filters to see more results.")
		}
		return nil
	}
	fmt.Fprintln(w, windowTable(snap.Result.Windows))
	_, err := fmt.Fprintf(w, "%s · page %d of %d\n", snap.Summary(), snap.Page(), snap.Result.Pages())
	return err
}

func windowTable(items []windows.Window) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DUP", "UPLOADED", "TYPE", "MATERIAL", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for _, item := range items {
		dup := ""
		if item.IsDuplicate {
			dup = "yes"
		}
		uploaded := "-"
		if created := item.Created(); !created.IsZero() {
			uploaded = created.Local().Format("2006-01-02 15:04")
		}
		t.Row(
			item.ShortID(),
			dup,
			uploaded,
			orDash(item.StructuredData.Get(string(query.KeyType))),
			orDash(item.StructuredData.Get(string(query.KeyMaterial))),
			clip(item.Description, 48),
		)
	}
	return t.String()
}

func writeWindow(w io.Writer, item windows.Window, imageBase string) {
	label := lipgloss.NewStyle().Bold(true)
	line := func(k, v string) {
		fmt.Fprintf(w, "%s %s\n", label.Render(fmt.Sprintf("%-12s", k+":")), v)
	}

	line("ID", item.ID)
	status := "Unique"
	if item.IsDuplicate {
		status = "Duplicate"
	}
	line("Status", status)
	if created := item.Created(); !created.IsZero() {
		line("Uploaded", created.Local().Format("2006-01-02 15:04:05"))
	}
	line("Hash", orDash(item.Hash))
	line("Image", orDash(windows.ImageURL(imageBase, item.ImageURL, 1280, 75)))
	line("Description", orDash(item.Description))

	if item.StructuredData.IsEmpty() {
		return
	}
	fmt.Fprintln(w)
	for _, f := range item.StructuredData.Fields() {
		value := f.Value
		if value == "" {
			value = "N/A"
		}
		line(f.Key, value)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
