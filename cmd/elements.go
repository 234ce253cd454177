package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/screen"
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List visible UI elements",
	Long:  "List the visible element tree, flattened and normalized to pixel coordinates. Use --raw for the untouched source tree.",
	RunE:  runElements,
}

var findCmd = &cobra.Command{
	Use:   "find <text>",
	Short: "Find elements matching text",
	Long:  "Search labels, names, and values for a case-insensitive substring. Hits are kept so \"tap recent N\" can tap them.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

// findResult is the output of a find command.
type findResult struct {
	OK    bool                 `yaml:"ok" json:"ok"`
	Query string               `yaml:"query" json:"query"`
	Count int                  `yaml:"count" json:"count"`
	Hits  []screen.ElementView `yaml:"hits" json:"hits"`
}

func init() {
	rootCmd.AddCommand(elementsCmd)
	rootCmd.AddCommand(findCmd)
	elementsCmd.Flags().Bool("raw", false, "Dump the source tree without normalization")
	findCmd.Flags().Int("limit", 0, "Cap the number of hits (0 = all)")
}

func runElements(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	if raw {
		tree, err := p.RawTree(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(tree)
	}
	els, err := p.Elements(cmd.Context())
	if err != nil {
		return err
	}
	views := screen.Views(els, 0)
	if views == nil {
		views = []screen.ElementView{}
	}
	return output.Print(views)
}

func runFind(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	els, err := p.Find(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}
	views := screen.Views(els, 0)
	if views == nil {
		views = []screen.ElementView{}
	}
	return output.Print(findResult{OK: true, Query: args[0], Count: len(views), Hits: views})
}
