package media_test

import (
	"testing"

	"reelsync/internal/media"
)

func TestSamePrefersTMDBID(t *testing.T) {
	a := media.Movie{Title: "Alpha", Year: 2001, TMDBID: 10, IMDBID: "tt100"}
	b := media.Movie{Title: "Totally Different", Year: 1950, TMDBID: 10, IMDBID: "tt999"}
	if !a.Same(b) {
		t.Fatal("matching TMDB ids must compare equal regardless of other fields")
	}

	c := media.Movie{Title: "Alpha", Year: 2001, TMDBID: 11, IMDBID: "tt100"}
	if a.Same(c) {
		t.Fatal("differing TMDB ids must compare unequal even when IMDB ids match")
	}
}

func TestSameFallsBackToIMDBThenTitleYear(t *testing.T) {
	a := media.Movie{Title: "Alpha", Year: 2001, IMDBID: "tt100"}
	b := media.Movie{Title: "Beta", Year: 1999, IMDBID: "tt100"}
	if !a.Same(b) {
		t.Fatal("matching IMDB ids must compare equal")
	}

	c := media.Movie{Title: "ALPHA", Year: 2001}
	d := media.Movie{Title: "alpha", Year: 2001}
	if !c.Same(d) {
		t.Fatal("title comparison must ignore case")
	}

	e := media.Movie{Title: "Alpha", Year: 2002}
	if c.Same(e) {
		t.Fatal("same title with differing year must compare unequal")
	}
}

func TestKeyBucketsMatchEquality(t *testing.T) {
	withTMDB := media.Movie{Title: "Alpha", TMDBID: 10, IMDBID: "tt100"}
	if withTMDB.Key() != "tmdb:10" {
		t.Fatalf("unexpected key: %q", withTMDB.Key())
	}

	withIMDB := media.Movie{Title: "Alpha", IMDBID: "tt100"}
	if withIMDB.Key() != "imdb:tt100" {
		t.Fatalf("unexpected key: %q", withIMDB.Key())
	}

	bare := media.Movie{Title: "Alpha", Year: 2001}
	bareUpper := media.Movie{Title: "ALPHA", Year: 2001}
	if bare.Key() != bareUpper.Key() {
		t.Fatalf("title keys must fold case: %q vs %q", bare.Key(), bareUpper.Key())
	}
}

func TestCloneDoesNotShareDirectors(t *testing.T) {
	original := media.Movie{Title: "Alpha", Directors: []string{"One", "Two"}}
	clone := original.Clone()
	clone.Directors[0] = "Changed"
	if original.Directors[0] != "One" {
		t.Fatal("Clone must copy the directors slice")
	}
}

func TestRatingFromTen(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{7, 3.5},
		{10, 5.0},
		{1, 0.5},
		{8, 4.0},
		{9, 4.5},
		{0, 0},
	}
	for _, tc := range cases {
		if got := media.RatingFromTen(tc.in); got != tc.want {
			t.Errorf("RatingFromTen(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
