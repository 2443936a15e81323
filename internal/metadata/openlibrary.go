package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	userAgent      = "Bookshelf/1.0 (https://github.com/mrlokans/bookshelf)"
)

// ErrNotFound is returned when OpenLibrary has no record for the query.
var ErrNotFound = errors.New("no metadata found")

// BookMetadata is what OpenLibrary knows about a book.
type BookMetadata struct {
	Title           string   `json:"title,omitempty"`
	Authors         []string `json:"authors,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	CoverURL        string   `json:"cover_url,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationYear int      `json:"publication_year,omitempty"`
	Description     string   `json:"description,omitempty"`
	Subjects        []string `json:"subjects,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
	OpenLibraryKey  string   `json:"open_library_key,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// wait blocks until interval has passed since the previous call or ctx is done.
func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if delay := r.interval - time.Since(r.lastCall); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a client limited to one request per second.
// An empty baseURL selects the public OpenLibrary instance.
func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: newRateLimiter(time.Second),
	}
}

// SearchByISBN looks up a single edition by ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var edition openLibraryEdition
	if err := c.getJSON(ctx, "/isbn/"+isbn+".json", &edition); err != nil {
		return nil, fmt.Errorf("fetch ISBN %s: %w", isbn, err)
	}

	md := &BookMetadata{
		Title:          edition.Title,
		ISBN:           isbn,
		CoverURL:       isbnCoverURL(isbn),
		PageCount:      edition.NumberOfPages,
		OpenLibraryKey: edition.Key,
		Subjects:       limitSubjects(edition.Subjects),
		Description:    descriptionText(edition.Description),
	}
	if len(edition.Publishers) > 0 {
		md.Publisher = edition.Publishers[0]
	}
	if edition.PublishDate != "" {
		md.PublicationYear = extractYear(edition.PublishDate)
	}

	for _, ref := range edition.Authors {
		name, err := c.fetchAuthorName(ctx, ref.Key)
		if err == nil && name != "" {
			md.Authors = append(md.Authors, name)
		}
	}

	return md, nil
}

// SearchByTitle runs a full-text search and returns the best scoring match.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	q := title
	if author != "" {
		q = title + " " + author
	}

	var result openLibrarySearchResult
	if err := c.getJSON(ctx, "/search.json?limit=5&q="+url.QueryEscape(q), &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", title, err)
	}
	if len(result.Docs) == 0 {
		return nil, fmt.Errorf("search %q: %w", title, ErrNotFound)
	}

	doc := bestMatch(result.Docs, title, author)
	md := &BookMetadata{
		Title:           doc.Title,
		Authors:         doc.AuthorName,
		PublicationYear: doc.FirstPublishYear,
		Subjects:        limitSubjects(doc.Subject),
		OpenLibraryKey:  doc.Key,
	}
	if len(doc.Publisher) > 0 {
		md.Publisher = doc.Publisher[0]
	}
	switch {
	case len(doc.ISBN) > 0:
		md.ISBN = doc.ISBN[0]
		md.CoverURL = isbnCoverURL(doc.ISBN[0])
	case doc.CoverI != 0:
		md.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}

	// Search docs carry no ISBN for many works; the cover edition usually does.
	if md.ISBN == "" && doc.CoverEditionKey != "" {
		var edition openLibraryEdition
		if err := c.getJSON(ctx, "/books/"+doc.CoverEditionKey+".json", &edition); err == nil {
			mergeEdition(md, &edition)
		}
	}

	return md, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty author key")
	}
	var author struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, key+".json", &author); err != nil {
		return "", err
	}
	return author.Name, nil
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bestMatch scores exact title and author matches highest, then prefers
// docs that carry an ISBN or a cover.
func bestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	best := &docs[0]
	bestScore := -1
	for i := range docs {
		doc := &docs[i]
		score := 0

		docTitle := strings.ToLower(doc.Title)
		if docTitle == titleLower {
			score += 10
		} else if strings.Contains(docTitle, titleLower) {
			score += 5
		}

		if authorLower != "" {
			for _, name := range doc.AuthorName {
				name = strings.ToLower(name)
				if name == authorLower {
					score += 10
					break
				}
				if strings.Contains(name, authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}
		if doc.CoverI != 0 {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = doc
		}
	}
	return best
}

func mergeEdition(md *BookMetadata, edition *openLibraryEdition) {
	if md.ISBN == "" {
		if len(edition.ISBN13) > 0 {
			md.ISBN = edition.ISBN13[0]
		} else if len(edition.ISBN10) > 0 {
			md.ISBN = edition.ISBN10[0]
		}
	}
	if md.ISBN != "" && md.CoverURL == "" {
		md.CoverURL = isbnCoverURL(md.ISBN)
	}
	if md.Publisher == "" && len(edition.Publishers) > 0 {
		md.Publisher = edition.Publishers[0]
	}
	if md.PageCount == 0 {
		md.PageCount = edition.NumberOfPages
	}
	if md.PublicationYear == 0 && edition.PublishDate != "" {
		md.PublicationYear = extractYear(edition.PublishDate)
	}
	if md.Description == "" {
		md.Description = descriptionText(edition.Description)
	}
}

func isbnCoverURL(isbn string) string {
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
}

// descriptionText handles OpenLibrary's two description shapes: a bare
// string or {"type": ..., "value": ...}.
func descriptionText(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case map[string]any:
		if s, ok := d["value"].(string); ok {
			return s
		}
	}
	return ""
}

func limitSubjects(subjects []string) []string {
	if len(subjects) > 10 {
		return subjects[:10]
	}
	return subjects
}

// normalizeISBN strips separators and returns "" unless 10 or 13 characters remain.
func normalizeISBN(isbn string) string {
	isbn = strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear finds a plausible four-digit year in a free-form date.
func extractYear(date string) int {
	date = strings.TrimSpace(date)
	for _, layout := range []string{"2006", "January 2, 2006", "Jan 2, 2006", "2006-01-02", "January 2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year()
		}
	}

	for i := 0; i+4 <= len(date); i++ {
		year := 0
		digits := 0
		for _, ch := range date[i : i+4] {
			if ch < '0' || ch > '9' {
				break
			}
			year = year*10 + int(ch-'0')
			digits++
		}
		if digits == 4 && year > 1000 && year < 3000 {
			return year
		}
	}
	return 0
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
	CoverEditionKey  string   `json:"cover_edition_key"`
	Subject          []string `json:"subject"`
}

type openLibraryEdition struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	ISBN10        []string    `json:"isbn_10"`
	ISBN13        []string    `json:"isbn_13"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"`
	Subjects      []string    `json:"subjects"`
}
