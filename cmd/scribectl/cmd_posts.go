package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scribehq/scribe-client/pkg/feed"
)

// postView is the slice of a post the CLI cares about.
type postView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

var maxPages int

func init() {
	postsCmd.Flags().IntVar(&maxPages, "pages", 3, "maximum number of pages to fetch")
	rootCmd.AddCommand(postsCmd)
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts, walking the cursor page by page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		paginator := feed.New[postView](c, "/posts/", feed.DefaultConfig())
		defer paginator.Close()

		paginator.Refresh(ctx)
		if msg := paginator.Err(); msg != "" {
			return fmt.Errorf("load posts: %s", msg)
		}

		for page := 1; page < maxPages && paginator.HasMore(); page++ {
			paginator.LoadMore(ctx)
			if msg := paginator.Err(); msg != "" {
				fmt.Fprintf(os.Stderr, "page %d failed: %s\n", page+1, msg)
				break
			}
		}

		items := paginator.Items()
		if len(items) == 0 {
			fmt.Println("No posts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCREATED")
		for _, p := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.Author, p.CreatedAt)
		}
		if paginator.HasMore() {
			fmt.Fprintf(w, "...\t(more pages available)\t\t\n")
		}
		return w.Flush()
	},
}
