package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/scryfall"
)

var listCmd = &cobra.Command{
	Use:   "list QUERY...",
	Short: "List the cards matching a Scryfall search",
	Long: `List forwards QUERY to the Scryfall search endpoint and prints every matching
card. The query uses Scryfall's search syntax and is passed through verbatim.

Examples:
  proxymancer list 'set:znr t:land'
  proxymancer list --with-block --with-cn 'o:"draw a card"' -o draw.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		query := strings.Join(args, " ")

		asJSON, _ := cmd.Flags().GetBool("json")
		namesOnly, _ := cmd.Flags().GetBool("names-only")
		withBlock, _ := cmd.Flags().GetBool("with-block")
		withCN, _ := cmd.Flags().GetBool("with-cn")
		withSet, _ := cmd.Flags().GetBool("with-set")
		output, _ := cmd.Flags().GetString("output")
		unique, _ := cmd.Flags().GetString("unique")
		order, _ := cmd.Flags().GetString("order")

		var cards []card.Card
		for c, err := range e.resolver.Search(cmd.Context(), query, scryfall.SearchOptions{Unique: unique, Order: order}) {
			if err != nil {
				return fmt.Errorf("search failed: %v", err)
			}
			cards = append(cards, c)
		}
		e.log.Info(fmt.Sprintf("Found %d cards.", len(cards)))
		if len(cards) == 0 {
			return nil
		}

		var out string
		if asJSON {
			data, err := json.MarshalIndent(listEntries(cards), "", "  ")
			if err != nil {
				return fmt.Errorf("error encoding results: %v", err)
			}
			out = string(data)
		} else {
			lines := make([]string, len(cards))
			for i, c := range cards {
				if namesOnly {
					lines[i] = c.Name
				} else {
					lines[i] = formatCard(c, withBlock, withCN, withSet)
				}
			}
			out = strings.Join(lines, "\n")
		}

		if output != "" {
			if err := os.WriteFile(output, []byte(out+"\n"), 0644); err != nil {
				return fmt.Errorf("error writing results: %v", err)
			}
			e.log.Info("Results saved to " + output)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Print results as JSON")
	listCmd.Flags().Bool("names-only", false, "Print card names only")
	listCmd.Flags().Bool("with-block", false, "Append the set code in parentheses")
	listCmd.Flags().Bool("with-cn", false, "Append the set code and collector number")
	listCmd.Flags().Bool("with-set", false, "Append the set name")
	listCmd.Flags().StringP("output", "o", "", "Write results to a file instead of stdout")
	listCmd.Flags().String("unique", "", "Scryfall unique mode: cards, art or prints")
	listCmd.Flags().String("order", "", "Scryfall sort order, e.g. name, set, released")
}

// formatCard renders c for list output. A collector number is only
// meaningful next to its set code, so withCN implies withBlock; the result
// then parses back as a deck line for that exact printing. A trailing set
// name is for reading only
func formatCard(c card.Card, withBlock, withCN, withSet bool) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if withBlock || withCN {
		fmt.Fprintf(&b, " (%s)", strings.ToUpper(c.Set))
	}
	if withCN && c.CollectorNumber != "" {
		b.WriteString(" " + c.CollectorNumber)
	}
	if withSet && c.SetName != "" {
		b.WriteString(" " + c.SetName)
	}
	return b.String()
}

type listEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	Block           string `json:"block,omitempty"`
	CollectorNumber string `json:"collector_number"`
	Layout          string `json:"layout"`
	DoubleFaced     bool   `json:"is_double_faced"`
	ImageURL        string `json:"image_url"`
	BackImageURL    string `json:"back_image_url,omitempty"`
}

func listEntries(cards []card.Card) []listEntry {
	out := make([]listEntry, len(cards))
	for i, c := range cards {
		out[i] = listEntry{
			ID:              c.ID.String(),
			Name:            c.Name,
			Set:             c.Set,
			SetName:         c.SetName,
			Block:           c.Block,
			CollectorNumber: c.CollectorNumber,
			Layout:          c.Layout,
			DoubleFaced:     c.IsDoubleFaced(),
			ImageURL:        c.Front.ImageURL,
		}
		if c.Back != nil {
			out[i].BackImageURL = c.Back.ImageURL
		}
	}
	return out
}
