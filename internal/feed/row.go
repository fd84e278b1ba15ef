package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/review"
)

// DefaultMaxLines is the truncation limit a review row starts with.
const DefaultMaxLines = 3

// SummaryHeight is the fixed height of the trailing summary row.
const SummaryHeight = 3

// SummaryID identifies the summary row. There is at most one.
const SummaryID RowID = "summary"

// RowID is the stable identity of a row.
type RowID string

// NewRowID returns a fresh random identifier.
func NewRowID() RowID {
	return RowID(uuid.NewString())
}

// Kind tags the variant a Row carries.
type Kind int

const (
	KindReview Kind = iota
	KindSummary
)

func (k Kind) String() string {
	switch k {
	case KindReview:
		return "review"
	case KindSummary:
		return "summary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ReviewRow is one rendered review.
type ReviewRow struct {
	ID        RowID
	Rating    int
	Username  string
	Body      string
	Created   string
	AvatarURL string
	Photos    []string
	// MaxLines caps the body; 0 means unlimited (expanded).
	MaxLines int
}

// Content is the part of the row the layout engine measures.
func (r ReviewRow) Content() layout.Content {
	return layout.Content{
		Username: r.Username,
		Body:     r.Body,
		Created:  r.Created,
		MaxLines: r.MaxLines,
		Photos:   len(r.Photos),
	}
}

// SummaryRow carries the total review count last reported by the server.
type SummaryRow struct {
	Total int
}

// Label is the text the summary row shows.
func (s SummaryRow) Label() string {
	noun := "reviews"
	if s.Total == 1 {
		noun = "review"
	}
	return humanize.Comma(int64(s.Total)) + " " + noun
}

// Row is a closed tagged variant over ReviewRow and SummaryRow. Only the
// field matching Kind is meaningful.
type Row struct {
	Kind    Kind
	Review  ReviewRow
	Summary SummaryRow
}

// ReviewItem wraps a ReviewRow.
func ReviewItem(r ReviewRow) Row {
	return Row{Kind: KindReview, Review: r}
}

// SummaryItem wraps a SummaryRow.
func SummaryItem(total int) Row {
	return Row{Kind: KindSummary, Summary: SummaryRow{Total: total}}
}

// ID returns the row identity.
func (r Row) ID() RowID {
	if r.Kind == KindSummary {
		return SummaryID
	}
	return r.Review.ID
}

// ReuseID names the rendering template a row needs.
func (r Row) ReuseID() string {
	switch r.Kind {
	case KindSummary:
		return "SummaryRow"
	default:
		return "ReviewRow"
	}
}

// Measurer computes review row frames. *layout.Engine implements it.
type Measurer interface {
	Measure(c layout.Content, maxWidth int) layout.Frames
}

// Measure lays the row out at the given width. Summary rows have a fixed
// height and no frames.
func (r Row) Measure(e Measurer, width int) layout.Frames {
	switch r.Kind {
	case KindSummary:
		return layout.Frames{Height: SummaryHeight}
	default:
		return e.Measure(r.Review.Content(), width)
	}
}

// Height measures the row at the given width.
func (r Row) Height(e Measurer, width int) int {
	return r.Measure(e, width).Height
}

// Render measures and draws the row as exactly Height lines.
func (r Row) Render(e Measurer, ctx RenderContext) []string {
	return r.RenderFrames(r.Measure(e, ctx.Width), ctx)
}

// RenderFrames draws the row from frames already measured at ctx.Width.
func (r Row) RenderFrames(f layout.Frames, ctx RenderContext) []string {
	switch r.Kind {
	case KindSummary:
		return renderSummary(r.Summary, ctx)
	default:
		return renderReview(r.Review, f, ctx)
	}
}

// NewReviewRow builds a row from a decoded review. now anchors relative
// creation dates.
func NewReviewRow(rv review.Review, now time.Time) ReviewRow {
	return ReviewRow{
		ID:        NewRowID(),
		Rating:    rv.Rating,
		Username:  rv.Username(),
		Body:      strings.TrimSpace(rv.Text),
		Created:   formatCreated(rv.Created, now),
		AvatarURL: rv.AvatarURL,
		Photos:    rv.PhotoURLs,
		MaxLines:  DefaultMaxLines,
	}
}

var createdLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// formatCreated renders machine timestamps relative to now and passes any
// other text through unchanged.
func formatCreated(created string, now time.Time) string {
	created = strings.TrimSpace(created)
	for _, l := range createdLayouts {
		if t, err := time.Parse(l, created); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return created
}
