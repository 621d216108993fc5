package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/store"
)

// entriesCommand creates the entries command group for managing story
// entries and their relationships.
func (c *CLI) entriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage story entries and their relationships",
		Long: `Manage story entries and their relationships.

Entries are the elements of a story: characters, locations, items, and
events. Relationships link two entries with a free-form type such as
"Enemy" or "Mentor". The map commands derive the relationship graph from
this database.`,
	}

	cmd.AddCommand(c.entriesListCommand())
	cmd.AddCommand(c.entriesAddCommand())
	cmd.AddCommand(c.entriesShowCommand())
	cmd.AddCommand(c.entriesRemoveCommand())
	cmd.AddCommand(c.entriesSearchCommand())
	cmd.AddCommand(c.entriesLinkCommand())
	cmd.AddCommand(c.entriesUnlinkCommand())

	return cmd
}

// openStore opens the configured story database.
func (c *CLI) openStore() (*store.SQLite, error) {
	st, err := store.Open(c.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", c.Config.DBPath, err)
	}
	return st, nil
}

// -----------------------------------------------------------------------------
// entries list
// -----------------------------------------------------------------------------

func (c *CLI) entriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.ListEntries(cmd.Context())
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				printInfo("no entries yet")
				printNewline()
				printNextStep("Add one", "relmap entries add \"Alice\" --category character")
				return nil
			}

			printEntryTable(entries)
			printDetail("%d entries", len(entries))
			return nil
		},
	}
}

// printEntryTable renders entries as a bordered table.
func printEntryTable(entries []graph.Entry) {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.Category.String(),
			strings.Join(e.Tags, ", "),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Category", "Tags").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 || col == 3 {
				return StyleDim
			}
			return StyleValue
		})

	fmt.Println(t.Render())
}

// -----------------------------------------------------------------------------
// entries add
// -----------------------------------------------------------------------------

func (c *CLI) entriesAddCommand() *cobra.Command {
	var (
		description string
		category    string
		tags        string
		synonyms    string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			e := graph.Entry{
				Title:       args[0],
				Description: description,
				Category:    graph.ParseCategory(category),
				Tags:        splitList(tags),
				Synonyms:    splitList(synonyms),
			}
			id, err := st.CreateEntry(cmd.Context(), e)
			if err != nil {
				return err
			}

			printSuccess("Added %s (ID %d)", StyleHighlight.Render(e.Title), id)
			printNewline()
			printNextStep("Link it", fmt.Sprintf("relmap entries link %d <other-id> --type \"Ally\"", id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "entry description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category: character, location, item, event")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&synonyms, "synonyms", "", "comma-separated alternative names")

	return cmd
}

// -----------------------------------------------------------------------------
// entries show
// -----------------------------------------------------------------------------

func (c *CLI) entriesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show an entry and its relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			e, err := st.GetEntry(ctx, id)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(e.Title))
			printKeyValue("ID", strconv.FormatInt(e.ID, 10))
			printKeyValue("Category", e.Category.String())
			if e.Description != "" {
				printKeyValue("Description", e.Description)
			}
			if len(e.Tags) > 0 {
				printKeyValue("Tags", strings.Join(e.Tags, ", "))
			}
			if len(e.Synonyms) > 0 {
				printKeyValue("Synonyms", strings.Join(e.Synonyms, ", "))
			}

			rels, err := st.ListRelationships(ctx)
			if err != nil {
				return err
			}
			var mine []graph.Relationship
			for _, r := range rels {
				if r.EntryA == id || r.EntryB == id {
					mine = append(mine, r)
				}
			}
			if len(mine) == 0 {
				return nil
			}

			printNewline()
			fmt.Println(StyleDim.Render("Relationships"))
			for _, r := range mine {
				other := r.EntryB
				if other == id {
					other = r.EntryA
				}
				label := r.Type
				if label == "" {
					label = "relationship"
				}
				name := fmt.Sprintf("entry %d", other)
				if o, err := st.GetEntry(ctx, other); err == nil {
					name = o.Title
				}
				printDetail("[%d] %s %s %s", r.ID, label, iconArrow, name)
			}
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// entries rm
// -----------------------------------------------------------------------------

func (c *CLI) entriesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove an entry and its relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteEntry(cmd.Context(), id); err != nil {
				return err
			}

			printSuccess("Removed entry %d (and its relationships)", id)
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// entries search
// -----------------------------------------------------------------------------

func (c *CLI) entriesSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search entries by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.SearchEntries(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				printInfo("no entries match %q", args[0])
				return nil
			}

			printEntryTable(entries)
			printDetail("%d entries match %q", len(entries), args[0])
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// entries link / unlink
// -----------------------------------------------------------------------------

func (c *CLI) entriesLinkCommand() *cobra.Command {
	var relType string

	cmd := &cobra.Command{
		Use:   "link [id-a] [id-b]",
		Short: "Create a relationship between two entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := parseID(args[1])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := st.CreateRelationship(cmd.Context(), graph.Relationship{
				EntryA: a,
				EntryB: b,
				Type:   relType,
			})
			if err != nil {
				return err
			}

			printSuccess("Linked %d %s %d (relationship %d)", a, iconArrow, b, id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&relType, "type", "t", "", "relationship type (e.g. \"Enemy\", \"Mentor\")")

	return cmd
}

func (c *CLI) entriesUnlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink [relationship-id]",
		Short: "Remove a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRelationship(cmd.Context(), id); err != nil {
				return err
			}

			printSuccess("Removed relationship %d", id)
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: expected a number", s)
	}
	return id, nil
}

// splitList parses a comma-separated flag value into a trimmed slice.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
