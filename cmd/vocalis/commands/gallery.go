package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/pkg/cli"
	"github.com/vocalis-ai/vocalis/pkg/studio"
)

var galleryOpts struct {
	context string
	format  string
	out     string
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse generated media",
	Long: `Browse, export and delete media generated by the image and video
commands.

Examples:
  vocalis gallery list
  vocalis gallery show 0d9c...
  vocalis gallery export 0d9c... --out sunset.png
  vocalis gallery delete 0d9c...`,
}

var galleryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List gallery items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gallery, err := openGallery(ctx, galleryOpts.context)
		if err != nil {
			return err
		}
		defer gallery.Close()

		items, err := gallery.List(ctx)
		if err != nil {
			return err
		}

		if galleryOpts.format != "" {
			return cli.Output(items, cli.OutputOptions{Format: cli.OutputFormat(galleryOpts.format)})
		}

		if len(items) == 0 {
			fmt.Println("Gallery is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tCREATED\tMODEL\tPROMPT")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				item.ID, item.Kind,
				item.CreatedAt.Local().Format("2006-01-02 15:04"),
				item.Model, truncatePrompt(item.Prompt, 48))
		}
		return w.Flush()
	},
}

var galleryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gallery, err := openGallery(ctx, galleryOpts.context)
		if err != nil {
			return err
		}
		defer gallery.Close()

		item, err := gallery.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return cli.Output(item, cli.OutputOptions{Format: cli.OutputFormat(galleryOpts.format)})
	},
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an item's media bytes to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gallery, err := openGallery(ctx, galleryOpts.context)
		if err != nil {
			return err
		}
		defer gallery.Close()

		r, item, err := gallery.Open(ctx, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		path := galleryOpts.out
		if path == "" {
			path = item.ID + extForItem(item)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s", path)
		return nil
	},
}

var galleryDeleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete items and their media",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gallery, err := openGallery(ctx, galleryOpts.context)
		if err != nil {
			return err
		}
		defer gallery.Close()

		for _, id := range args {
			if err := gallery.Delete(ctx, id); err != nil {
				return err
			}
			cli.PrintSuccess("Deleted %s", id)
		}
		return nil
	},
}

func truncatePrompt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// extForItem derives an export filename extension from the stored blob path.
func extForItem(item *studio.Item) string {
	for i := len(item.Path) - 1; i >= 0; i-- {
		switch item.Path[i] {
		case '.':
			return item.Path[i:]
		case '/':
			return ""
		}
	}
	return ""
}

func init() {
	galleryCmd.PersistentFlags().StringVar(&galleryOpts.context, "context", "", "config context (default: current)")
	galleryCmd.PersistentFlags().StringVar(&galleryOpts.format, "format", "", "output format (yaml or json)")
	galleryExportCmd.Flags().StringVar(&galleryOpts.out, "out", "", "output file (default: <id>.<ext>)")

	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryShowCmd)
	galleryCmd.AddCommand(galleryExportCmd)
	galleryCmd.AddCommand(galleryDeleteCmd)

	rootCmd.AddCommand(galleryCmd)
}
