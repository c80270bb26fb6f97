package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/pkg/model"
)

const browseHelp = `Commands:
  /text          search for text (a lone / clears the search)
  s created_at   sort by date; s rating sorts by rating
  n, p           next or previous page
  g N            go to page N
  r              reload
  h              this help
  q              quit`

func newPostsBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse posts interactively",
		Long:  "Browse posts interactively.\n\n" + browseHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := posts.NewController(client, posts.Options{
				Limit:    cfg.Posts.Limit,
				Debounce: cfg.Posts.Debounce,
				Logger:   logger,
			})
			return browse(cmd, ctrl)
		},
	}
}

// syncWriter serializes writes from the renderer and the command loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// browse runs the interactive loop: commands are read line by line and
// every state change published by the controller is printed.
func browse(cmd *cobra.Command, ctrl *posts.Controller) error {
	out := &syncWriter{w: cmd.OutOrStdout()}
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		var last posts.View = -1
		for snap := range updates {
			// Loading and searching repeat while a fetch is in flight.
			if snap.View == last && (snap.View == posts.ViewLoading || snap.View == posts.ViewSearching) {
				continue
			}
			last = snap.View
			printSnapshot(out, snap)
		}
	}()

	if err := ctrl.Start(); err != nil {
		return err
	}
	fmt.Fprintln(out, browseHelp)

	in := bufio.NewScanner(cmd.InOrStdin())
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "h", "help", "?":
			fmt.Fprintln(out, browseHelp)
			continue
		}
		quit, err := browseCommand(ctrl, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}

	if err := ctrl.Wait(cmd.Context()); err != nil {
		logger.Debug("browse wait", "error", err)
	}
	ctrl.Close()
	<-rendered
	return in.Err()
}

// browseCommand applies one command line to the controller.
func browseCommand(ctrl *posts.Controller, line string) (quit bool, err error) {
	if strings.HasPrefix(line, "/") {
		return false, ctrl.CommitSearch(strings.TrimSpace(line[1:]))
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "q", "quit", "exit":
		return true, nil
	case "n", "next":
		if !ctrl.SetPage(ctrl.Query().Page + 1) {
			return false, fmt.Errorf("already on the last page")
		}
	case "p", "prev":
		if !ctrl.SetPage(ctrl.Query().Page - 1) {
			return false, fmt.Errorf("already on the first page")
		}
	case "g", "go":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: g N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid page %q", fields[1])
		}
		if !ctrl.SetPage(n) {
			return false, fmt.Errorf("no page %d", n)
		}
	case "s", "sort":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: s created_at|rating")
		}
		field, err := model.ParseSortField(fields[1])
		if err != nil {
			return false, err
		}
		return false, ctrl.SetSort(field)
	case "r", "reload":
		return false, ctrl.Refresh()
	default:
		return false, fmt.Errorf("unknown command %q (h for help)", fields[0])
	}
	return false, nil
}
