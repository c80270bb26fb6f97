package posts

import "github.com/suckyear/suckyear/pkg/model"

// View is the part of the list area that dominates the screen.
type View int

const (
	ViewList View = iota
	ViewSearching
	ViewLoading
	ViewError
	ViewEmpty
)

func (v View) String() string {
	switch v {
	case ViewSearching:
		return "searching"
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	default:
		return "list"
	}
}

// State is derived from the latest fetch outcome. It is replaced as a whole
// on every transition.
type State struct {
	Posts     []model.PostSummary
	Total     int
	Loading   bool
	Searching bool
	Error     string
	Empty     bool
}

// View applies the fixed precedence: searching, loading, error, empty, list.
func (s State) View() View {
	switch {
	case s.Searching:
		return ViewSearching
	case s.Loading:
		return ViewLoading
	case s.Error != "":
		return ViewError
	case s.Empty:
		return ViewEmpty
	default:
		return ViewList
	}
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	Generation uint64
	Query      model.PostsQuery
	SearchText string
	State      State
	View       View
	Pagination model.Pagination
}

// Placeholder is the content of the empty-list placeholder.
type Placeholder struct {
	Icon        string
	Title       string
	Description string
}

// EmptyPlaceholder is shown when the backend has no posts for the query.
var EmptyPlaceholder = Placeholder{
	Icon:        "📄",
	Title:       "Нет данных :(",
	Description: "Нет данных для отображения",
}
