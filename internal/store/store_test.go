package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/abelbrown/reviews/internal/review"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sample(n int) []review.Review {
	out := make([]review.Review, n)
	for i := range out {
		out[i] = review.Review{
			FirstName: "User",
			LastName:  fmt.Sprint(i),
			Rating:    i%5 + 1,
			Text:      fmt.Sprintf("text %d", i),
			Created:   "2024-01-02",
		}
	}
	return out
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	var name string
	err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='reviews'").Scan(&name)
	if err != nil {
		t.Fatalf("reviews table not created: %v", err)
	}
}

func TestSaveReviewsIsIdempotent(t *testing.T) {
	st := openTest(t)

	n, err := st.SaveReviews(sample(5))
	if err != nil {
		t.Fatalf("SaveReviews failed: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 new reviews, got %d", n)
	}

	n, err = st.SaveReviews(sample(7))
	if err != nil {
		t.Fatalf("SaveReviews failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 new reviews on re-seed, got %d", n)
	}

	count, err := st.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 7 {
		t.Errorf("expected count 7, got %d", count)
	}
}

func TestSaveReviewsEmpty(t *testing.T) {
	st := openTest(t)
	n, err := st.SaveReviews(nil)
	if err != nil || n != 0 {
		t.Errorf("SaveReviews(nil) = %d, %v", n, err)
	}
}

func TestPageKeepsInsertionOrder(t *testing.T) {
	st := openTest(t)
	if _, err := st.SaveReviews(sample(45)); err != nil {
		t.Fatalf("SaveReviews failed: %v", err)
	}

	tests := []struct {
		offset, limit, want int
		first               string
	}{
		{0, 20, 20, "0"},
		{20, 20, 20, "20"},
		{40, 20, 5, "40"},
		{60, 20, 0, ""},
	}
	for _, tt := range tests {
		page, err := st.Page(tt.offset, tt.limit)
		if err != nil {
			t.Fatalf("Page(%d, %d) failed: %v", tt.offset, tt.limit, err)
		}
		if len(page) != tt.want {
			t.Errorf("Page(%d, %d) returned %d reviews, want %d", tt.offset, tt.limit, len(page), tt.want)
		}
		if tt.want > 0 && page[0].LastName != tt.first {
			t.Errorf("Page(%d) first = %q, want %q", tt.offset, page[0].LastName, tt.first)
		}
	}
}

func TestPageRoundTripsPhotosAndAvatar(t *testing.T) {
	st := openTest(t)
	in := review.Review{
		FirstName: "Ann",
		Rating:    5,
		Text:      "great",
		Created:   "2024-01-02",
		AvatarURL: "https://img.test/a.png",
		PhotoURLs: []string{"https://img.test/1.jpg", "https://img.test/2.jpg"},
	}
	if _, err := st.SaveReviews([]review.Review{in}); err != nil {
		t.Fatalf("SaveReviews failed: %v", err)
	}

	page, err := st.Page(0, 1)
	if err != nil || len(page) != 1 {
		t.Fatalf("Page = %v, %v", page, err)
	}
	got := page[0]
	if got.AvatarURL != in.AvatarURL || len(got.PhotoURLs) != 2 || got.PhotoURLs[1] != in.PhotoURLs[1] {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if Hash(got) != Hash(in) {
		t.Error("hash changed across a round trip")
	}
}

func TestReset(t *testing.T) {
	st := openTest(t)
	st.SaveReviews(sample(3))
	if err := st.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if n, _ := st.Count(); n != 0 {
		t.Errorf("count after reset = %d", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := openTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			st.SaveReviews(sample(i + 1))
		}(i)
		go func() {
			defer wg.Done()
			st.Page(0, 5)
			st.Count()
		}()
	}
	wg.Wait()

	if n, _ := st.Count(); n != 10 {
		t.Errorf("expected 10 distinct reviews, got %d", n)
	}
}
