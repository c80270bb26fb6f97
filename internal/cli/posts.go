package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/pkg/model"
)

func newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and publish posts",
	}
	cmd.AddCommand(
		newPostsListCmd(),
		newPostsBrowseCmd(),
		newPostsShowCmd(),
		newPostsCreateCmd(),
	)
	return cmd
}

func newPostsListCmd() *cobra.Command {
	var (
		page   int
		limit  int
		search string
		sort   string
		order  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := model.DefaultPostsQuery()
			q.Page = page
			q.Limit = cfg.Posts.Limit
			if cmd.Flags().Changed("limit") {
				q.Limit = limit
			}
			q.Search = strings.TrimSpace(search)
			q.Sort = model.SortField(sort)
			q.Order = model.SortOrder(order)
			if err := q.Validate(); err != nil {
				return err
			}

			result, err := client.ListPosts(cmd.Context(), q)
			if err != nil {
				return errors.New(posts.LoadErrorPrefix + posts.Localize(err))
			}

			out := cmd.OutOrStdout()
			if result.Total == 0 {
				printPlaceholder(out)
				return nil
			}
			printPosts(out, result.Items)
			printPager(out, model.NewPagination(result.Total, q.Limit, q.Page), result.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", model.DefaultLimit, "Posts per page")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	cmd.Flags().StringVar(&sort, "sort", string(model.SortCreatedAt), "Sort field (created_at, rating)")
	cmd.Flags().StringVar(&order, "order", string(model.OrderDesc), "Sort order (asc, desc)")
	return cmd
}

func newPostsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := client.GetPost(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get post %s: %s", args[0], posts.Localize(err))
			}
			printPost(cmd.OutOrStdout(), post)
			return nil
		},
	}
}

func newPostsCreateCmd() *cobra.Command {
	var p model.NewPost

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a post",
		Long:  "Publish a post. Pass --content - to read the text from standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(cmd.Context())
			if err != nil {
				return err
			}
			if p.Content == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read content: %w", err)
				}
				p.Content = string(data)
			}
			p.Title = strings.TrimSpace(p.Title)
			p.Content = strings.TrimSpace(p.Content)
			if err := p.Validate(); err != nil {
				return err
			}

			post, err := client.CreatePost(cmd.Context(), token, p)
			if err != nil {
				return fmt.Errorf("create post: %s", posts.Localize(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Post created: %s\n", post.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&p.Title, "title", "t", "", "Post title")
	cmd.Flags().StringVarP(&p.Content, "content", "c", "", "Post text, or - for stdin")
	return cmd
}
