package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(0),
	}
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-441-17271-9", "9780441172719"},
		{"0-441-17271-7", "0441172717"},
		{"978 0 441 17271 9", "9780441172719"},
		{"9780441172719", "9780441172719"},
		{"123", ""},
		{"12345678901234", ""},
		{"", ""},
		{"  978-0-441-17271-9  ", "9780441172719"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeISBN(tt.input); got != tt.expected {
				t.Errorf("normalizeISBN(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1965", 1965},
		{"August 1, 1965", 1965},
		{"Aug 1, 1965", 1965},
		{"1990-09-01", 1990},
		{"June 2005", 2005},
		{"Published in 1999", 1999},
		{"", 0},
		{"no year here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := extractYear(tt.input); got != tt.expected {
				t.Errorf("extractYear(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSearchByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/isbn/9780441172719.json":
			_ = json.NewEncoder(w).Encode(openLibraryEdition{
				Key:           "/books/OL1M",
				Title:         "Dune",
				Publishers:    []string{"Ace"},
				PublishDate:   "1990",
				NumberOfPages: 535,
				Authors:       []authorRef{{Key: "/authors/OL1A"}},
				Subjects:      []string{"Science fiction", "Deserts"},
				Description:   map[string]any{"type": "/type/text", "value": "Arrakis."},
			})
		case "/authors/OL1A.json":
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "Frank Herbert"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	md, err := newTestClient(server.URL).SearchByISBN(context.Background(), "978-0-441-17271-9")
	if err != nil {
		t.Fatalf("SearchByISBN failed: %v", err)
	}

	if md.Title != "Dune" {
		t.Errorf("expected title 'Dune', got %q", md.Title)
	}
	if md.Publisher != "Ace" {
		t.Errorf("expected publisher 'Ace', got %q", md.Publisher)
	}
	if md.PublicationYear != 1990 {
		t.Errorf("expected year 1990, got %d", md.PublicationYear)
	}
	if len(md.Authors) != 1 || md.Authors[0] != "Frank Herbert" {
		t.Errorf("expected author 'Frank Herbert', got %v", md.Authors)
	}
	if md.Description != "Arrakis." {
		t.Errorf("expected description from typed value, got %q", md.Description)
	}
	if md.CoverURL == "" {
		t.Error("expected cover URL to be set")
	}
}

func TestSearchByISBN_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).SearchByISBN(context.Background(), "9780441172719")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchByISBN_Invalid(t *testing.T) {
	_, err := newTestClient("http://unused").SearchByISBN(context.Background(), "12")
	if err == nil {
		t.Error("expected error for invalid ISBN")
	}
}

func TestSearchByTitle_PicksBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search.json":
			_ = json.NewEncoder(w).Encode(openLibrarySearchResult{
				NumFound: 2,
				Docs: []openLibrarySearchDoc{
					{Key: "/works/OL2W", Title: "Dune Messiah", AuthorName: []string{"Frank Herbert"}},
					{
						Key:              "/works/OL1W",
						Title:            "Dune",
						AuthorName:       []string{"Frank Herbert"},
						FirstPublishYear: 1965,
						CoverEditionKey:  "OL1M",
						Subject:          []string{"Science fiction"},
					},
				},
			})
		case "/books/OL1M.json":
			_ = json.NewEncoder(w).Encode(openLibraryEdition{
				ISBN13:        []string{"9780441172719"},
				Publishers:    []string{"Ace"},
				NumberOfPages: 535,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	md, err := newTestClient(server.URL).SearchByTitle(context.Background(), "Dune", "Frank Herbert")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}

	if md.OpenLibraryKey != "/works/OL1W" {
		t.Errorf("expected exact title match, got %q", md.OpenLibraryKey)
	}
	if md.ISBN != "9780441172719" {
		t.Errorf("expected ISBN from cover edition, got %q", md.ISBN)
	}
	if md.Publisher != "Ace" || md.PageCount != 535 {
		t.Errorf("expected edition details merged, got publisher %q pages %d", md.Publisher, md.PageCount)
	}
	if md.PublicationYear != 1965 {
		t.Errorf("expected first publish year 1965, got %d", md.PublicationYear)
	}
}

func TestSearchByTitle_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openLibrarySearchResult{})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).SearchByTitle(context.Background(), "Nothing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	rl := newRateLimiter(time.Hour)
	if err := rl.wait(context.Background()); err != nil {
		t.Fatalf("first call should not wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
