package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/review"
)

func TestSummaryLabel(t *testing.T) {
	assert.Equal(t, "1 review", SummaryRow{Total: 1}.Label())
	assert.Equal(t, "45 reviews", SummaryRow{Total: 45}.Label())
	assert.Equal(t, "12,345 reviews", SummaryRow{Total: 12345}.Label())
	assert.Equal(t, "0 reviews", SummaryRow{}.Label())
}

func TestRowVariants(t *testing.T) {
	rv := ReviewItem(ReviewRow{ID: "abc"})
	sm := SummaryItem(3)

	assert.Equal(t, RowID("abc"), rv.ID())
	assert.Equal(t, SummaryID, sm.ID())
	assert.Equal(t, "ReviewRow", rv.ReuseID())
	assert.Equal(t, "SummaryRow", sm.ReuseID())
	assert.Equal(t, "review", KindReview.String())
	assert.Equal(t, "summary", KindSummary.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestNewReviewRow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	row := NewReviewRow(review.Review{
		FirstName: "Ivan",
		LastName:  "Petrov",
		Rating:    4,
		Text:      "  fine place \n",
		Created:   "2024-02-29T12:00:00Z",
		PhotoURLs: []string{"https://img.test/p/1.jpg"},
	}, now)

	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "Ivan Petrov", row.Username)
	assert.Equal(t, "fine place", row.Body)
	assert.Equal(t, "1 day ago", row.Created)
	assert.Equal(t, DefaultMaxLines, row.MaxLines)
	assert.Equal(t, 1, row.Content().Photos)

	other := NewReviewRow(review.Review{FirstName: "A", Rating: 1}, now)
	assert.NotEqual(t, row.ID, other.ID)
}

func TestFormatCreatedPassesThroughFreeText(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "13 мая 2024", formatCreated(" 13 мая 2024 ", now))
	assert.Equal(t, "", formatCreated("", now))
}

func TestRenderMatchesHeight(t *testing.T) {
	eng := layout.New(layout.Default())
	row := ReviewItem(ReviewRow{
		ID:       "r1",
		Rating:   3,
		Username: "Ann Lee",
		Body:     strings.Repeat("word ", 40),
		Created:  "yesterday",
		Photos:   []string{"https://img.test/p/1.jpg"},
		MaxLines: DefaultMaxLines,
	})

	for _, width := range []int{20, 40, 80} {
		lines := row.Render(eng, RenderContext{Width: width})
		require.Len(t, lines, row.Height(eng, width), "width %d", width)
		for i, l := range lines {
			assert.Equal(t, width, ansi.StringWidth(l), "width %d line %d", width, i)
		}
	}

	joined := ansi.Strip(strings.Join(row.Render(eng, RenderContext{Width: 40}), "\n"))
	assert.Contains(t, joined, layout.ShowMoreText)
	assert.Contains(t, joined, "Ann Lee")
	assert.Contains(t, joined, "yesterday")

	row.Review.MaxLines = 0
	expanded := ansi.Strip(strings.Join(row.Render(eng, RenderContext{Width: 40}), "\n"))
	assert.NotContains(t, expanded, layout.ShowMoreText)
}

func TestRenderSelectedMarker(t *testing.T) {
	eng := layout.New(layout.Default())
	row := ReviewItem(ReviewRow{ID: "r1", Rating: 5, Username: "Bo", Body: "ok", MaxLines: 3})

	lines := row.Render(eng, RenderContext{Width: 30, Selected: true})
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(ansi.Strip(l), selectionMarker))
	}
}

func TestRenderFramesMatchesRender(t *testing.T) {
	eng := layout.New(layout.Default())
	row := ReviewItem(ReviewRow{ID: "r1", Rating: 4, Username: "Ann", Body: strings.Repeat("word ", 30), MaxLines: 3})
	ctx := RenderContext{Width: 40}

	assert.Equal(t, row.Render(eng, ctx), row.RenderFrames(row.Measure(eng, 40), ctx))
	assert.Equal(t, SummaryHeight, SummaryItem(3).Measure(nil, 40).Height)
}

func TestRenderSummary(t *testing.T) {
	lines := SummaryItem(45).Render(nil, RenderContext{Width: 30})
	require.Len(t, lines, SummaryHeight)
	assert.Equal(t, SummaryHeight, SummaryItem(45).Height(nil, 30))
	assert.Contains(t, ansi.Strip(lines[SummaryHeight/2]), "45 reviews")
	assert.Equal(t, "", strings.TrimSpace(lines[0]))
}

func TestHeightCache(t *testing.T) {
	c := NewHeightCache()
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", layout.Frames{Height: 4, ShowMoreRequired: true})
	c.Put("b", layout.Frames{Height: 6})
	h, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 4, h)
	f, ok := c.Frames("a")
	assert.True(t, ok)
	assert.True(t, f.ShowMoreRequired)

	c.Invalidate("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Reset()
	assert.Zero(t, c.Len())
}
