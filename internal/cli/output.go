package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/pkg/model"
)

const excerptLength = 60

func printPosts(w io.Writer, items []model.PostSummary) {
	fmt.Fprintf(w, "%-8s  %-16s  %-6s  %-16s  %s\n", "ID", "AUTHOR", "RATING", "CREATED", "TEXT")
	fmt.Fprintf(w, "%-8s  %-16s  %-6s  %-16s  %s\n", "--", "------", "------", "-------", "----")
	for _, p := range items {
		fmt.Fprintf(w, "%-8s  %-16s  %-6s  %-16s  %s\n",
			p.ID, p.Author, humanize.FtoaWithDigits(p.Rating, 1), relTime(p.CreatedAt), excerpt(p.Text))
	}
}

func printPost(w io.Writer, p *model.PostSummary) {
	fmt.Fprintf(w, "Post:    %s\n", p.ID)
	fmt.Fprintf(w, "Author:  %s\n", p.Author)
	fmt.Fprintf(w, "Rating:  %s\n", humanize.FtoaWithDigits(p.Rating, 1))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s (%s)\n", p.CreatedAt.Format("2006-01-02 15:04"), relTime(p.CreatedAt))
	}
	if !p.UpdatedAt.IsZero() && !p.UpdatedAt.Equal(p.CreatedAt.Time) {
		fmt.Fprintf(w, "Updated: %s\n", relTime(p.UpdatedAt))
	}
	fmt.Fprintf(w, "\n%s\n", p.Text)
}

func printPlaceholder(w io.Writer) {
	ph := posts.EmptyPlaceholder
	fmt.Fprintf(w, "%s %s\n%s\n", ph.Icon, ph.Title, ph.Description)
}

// printPager prints the page numbers with the current one in brackets.
func printPager(w io.Writer, pg model.Pagination, total int) {
	var b strings.Builder
	if pg.PrevDisabled {
		b.WriteString("  ")
	} else {
		b.WriteString("‹ ")
	}
	for _, n := range pg.Numbers {
		if n == pg.Current {
			fmt.Fprintf(&b, "[%d] ", n)
		} else {
			fmt.Fprintf(&b, "%d ", n)
		}
	}
	if !pg.NextDisabled {
		b.WriteString("›")
	}
	fmt.Fprintf(w, "\n%s  (%s posts)\n", strings.TrimRight(b.String(), " "), humanize.Comma(int64(total)))
}

// printSnapshot renders the view of a posts list snapshot.
func printSnapshot(w io.Writer, snap posts.Snapshot) {
	switch snap.View {
	case posts.ViewSearching:
		fmt.Fprintf(w, "Поиск «%s»...\n", snap.Query.Search)
	case posts.ViewLoading:
		fmt.Fprintln(w, "Загрузка...")
	case posts.ViewError:
		fmt.Fprintln(w, snap.State.Error)
	case posts.ViewEmpty:
		printPlaceholder(w)
	default:
		printPosts(w, snap.State.Posts)
		printPager(w, snap.Pagination, snap.State.Total)
	}
}

func relTime(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.Time(ts.Time)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= excerptLength {
		return s
	}
	return string(r[:excerptLength-1]) + "…"
}
