package enrichment_test

import (
	"context"
	"testing"

	"reelsync/internal/enrichment"
	"reelsync/internal/media"
	"reelsync/internal/tmdb"
)

type fakeCatalog struct {
	details  map[int64]*tmdb.Details
	finds    map[string]*tmdb.SearchHit
	searches map[string][]tmdb.SearchHit

	detailCalls int
	findCalls   int
	searchCalls int
}

func (f *fakeCatalog) GetDetails(_ context.Context, tmdbID int64) *tmdb.Details {
	f.detailCalls++
	return f.details[tmdbID]
}

func (f *fakeCatalog) FindByIMDBID(_ context.Context, imdbID string) *tmdb.SearchHit {
	f.findCalls++
	return f.finds[imdbID]
}

func (f *fakeCatalog) Search(_ context.Context, title string, _ int) []tmdb.SearchHit {
	f.searchCalls++
	return f.searches[title]
}

func inceptionDetails() *tmdb.Details {
	return &tmdb.Details{
		ID:          27205,
		Title:       "Inception",
		ReleaseDate: "2010-07-15",
		ExternalIDs: tmdb.ExternalIDs{IMDBID: "tt1375666"},
		Credits: tmdb.Credits{Crew: []tmdb.CrewMember{
			{Name: "Emma Thomas", Job: "Producer"},
			{Name: "Christopher Nolan", Job: "Director"},
		}},
	}
}

func TestEnrichWithTMDBIDFillsMissingFields(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{27205: inceptionDetails()}}
	resolver := enrichment.NewResolver(catalog, nil)

	got := resolver.Enrich(context.Background(), media.Movie{Title: "Inception", TMDBID: 27205})

	if got.IMDBID != "tt1375666" {
		t.Fatalf("expected imdb id filled, got %q", got.IMDBID)
	}
	if got.Year != 2010 {
		t.Fatalf("expected year from release date, got %d", got.Year)
	}
	if len(got.Directors) != 1 || got.Directors[0] != "Christopher Nolan" {
		t.Fatalf("unexpected directors: %v", got.Directors)
	}
	if catalog.detailCalls != 1 {
		t.Fatalf("expected exactly one details lookup, got %d", catalog.detailCalls)
	}
	if catalog.findCalls != 0 || catalog.searchCalls != 0 {
		t.Fatal("only the details branch should run for a record with a TMDB id")
	}
}

func TestEnrichNeverOverwritesExistingFields(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{27205: inceptionDetails()}}
	resolver := enrichment.NewResolver(catalog, nil)

	input := media.Movie{
		Title:     "Inception",
		Year:      2011,
		TMDBID:    27205,
		IMDBID:    "tt0000001",
		Directors: []string{"Someone Else"},
	}
	got := resolver.Enrich(context.Background(), input)

	if got.Year != 2011 {
		t.Fatalf("year overwritten: %d", got.Year)
	}
	if got.IMDBID != "tt0000001" {
		t.Fatalf("imdb id overwritten: %q", got.IMDBID)
	}
	if len(got.Directors) != 1 || got.Directors[0] != "Someone Else" {
		t.Fatalf("directors overwritten: %v", got.Directors)
	}
	if catalog.detailCalls != 1 {
		t.Fatalf("record with ids still gets one backfill lookup, got %d calls", catalog.detailCalls)
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{27205: inceptionDetails()}}
	resolver := enrichment.NewResolver(catalog, nil)

	input := media.Movie{Title: "Inception", TMDBID: 27205}
	_ = resolver.Enrich(context.Background(), input)

	if input.IMDBID != "" || input.Year != 0 || input.Directors != nil {
		t.Fatalf("input mutated: %#v", input)
	}
}

func TestEnrichDetailsUnavailableReturnsRecordUnchanged(t *testing.T) {
	catalog := &fakeCatalog{}
	resolver := enrichment.NewResolver(catalog, nil)

	input := media.Movie{Title: "Inception", Year: 2010, TMDBID: 27205}
	got := resolver.Enrich(context.Background(), input)

	if !got.Same(input) || got.Year != 2010 || got.IMDBID != "" {
		t.Fatalf("expected record unchanged, got %#v", got)
	}
}

func TestEnrichByIMDBIDResolvesTMDBIDAndDirectors(t *testing.T) {
	catalog := &fakeCatalog{
		finds: map[string]*tmdb.SearchHit{
			"tt1375666": {ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"},
		},
		details: map[int64]*tmdb.Details{27205: inceptionDetails()},
	}
	resolver := enrichment.NewResolver(catalog, nil)

	got := resolver.Enrich(context.Background(), media.Movie{Title: "Inception", IMDBID: "tt1375666"})

	if got.TMDBID != 27205 {
		t.Fatalf("expected tmdb id from cross-reference, got %d", got.TMDBID)
	}
	if got.Year != 2010 {
		t.Fatalf("expected year from hit, got %d", got.Year)
	}
	if len(got.Directors) != 1 || got.Directors[0] != "Christopher Nolan" {
		t.Fatalf("expected directors from follow-up details call, got %v", got.Directors)
	}
	if catalog.findCalls != 1 || catalog.detailCalls != 1 {
		t.Fatalf("unexpected call counts: find=%d details=%d", catalog.findCalls, catalog.detailCalls)
	}
}

func TestEnrichByIMDBIDUnproductiveReturnsInputUnchanged(t *testing.T) {
	catalog := &fakeCatalog{}
	resolver := enrichment.NewResolver(catalog, nil)

	input := media.Movie{Title: "X", IMDBID: "tt1234567"}
	got := resolver.Enrich(context.Background(), input)

	if got.TMDBID != 0 || got.IMDBID != "tt1234567" || got.Year != 0 || len(got.Directors) != 0 {
		t.Fatalf("expected record unchanged, got %#v", got)
	}
	if catalog.detailCalls != 0 {
		t.Fatal("no details lookup should happen when the cross-reference finds nothing")
	}
	if catalog.searchCalls != 0 {
		t.Fatal("the imdb branch is terminal; search must not run")
	}
}

func TestEnrichBySearchEndToEnd(t *testing.T) {
	catalog := &fakeCatalog{
		searches: map[string][]tmdb.SearchHit{
			"Inception": {{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}},
		},
		details: map[int64]*tmdb.Details{27205: inceptionDetails()},
	}
	resolver := enrichment.NewResolver(catalog, nil)

	got := resolver.Enrich(context.Background(), media.Movie{Title: "Inception", Year: 2010})

	if got.TMDBID != 27205 {
		t.Fatalf("expected tmdb id from search, got %d", got.TMDBID)
	}
	if got.Year != 2010 {
		t.Fatalf("year must stay as provided, got %d", got.Year)
	}
	if got.IMDBID != "tt1375666" {
		t.Fatalf("expected imdb id from details, got %q", got.IMDBID)
	}
	if len(got.Directors) != 1 || got.Directors[0] != "Christopher Nolan" {
		t.Fatalf("unexpected directors: %v", got.Directors)
	}
}

func TestEnrichBySearchNoResults(t *testing.T) {
	catalog := &fakeCatalog{}
	resolver := enrichment.NewResolver(catalog, nil)

	input := media.Movie{Title: "Nothing Matches", Year: 1984}
	got := resolver.Enrich(context.Background(), input)

	if got.HasID() {
		t.Fatalf("expected no ids on resolution failure, got %#v", got)
	}
	if got.Title != input.Title || got.Year != input.Year {
		t.Fatalf("record content changed: %#v", got)
	}
}

func TestEnrichIsIdempotentOnIdentifierFields(t *testing.T) {
	catalog := &fakeCatalog{
		searches: map[string][]tmdb.SearchHit{
			"Inception": {{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}},
		},
		details: map[int64]*tmdb.Details{27205: inceptionDetails()},
	}
	resolver := enrichment.NewResolver(catalog, nil)

	once := resolver.Enrich(context.Background(), media.Movie{Title: "Inception", Year: 2010})
	twice := resolver.Enrich(context.Background(), once)

	if once.TMDBID != twice.TMDBID || once.IMDBID != twice.IMDBID || once.Year != twice.Year {
		t.Fatalf("enrichment not idempotent: %#v vs %#v", once, twice)
	}
}

func TestEnrichUnparsableReleaseDateLeavesYearUnset(t *testing.T) {
	details := inceptionDetails()
	details.ReleaseDate = "unknown"
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{27205: details}}
	resolver := enrichment.NewResolver(catalog, nil)

	got := resolver.Enrich(context.Background(), media.Movie{Title: "Inception", TMDBID: 27205})
	if got.Year != 0 {
		t.Fatalf("expected year left unset for unparsable date, got %d", got.Year)
	}
}
