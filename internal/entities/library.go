package entities

import (
	"strings"
	"time"
)

type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"index;size:512;not null" json:"title"`
	ISBN            string         `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverURL        string         `gorm:"size:2048" json:"cover_url,omitempty"`
	Publisher       string         `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear int            `json:"publication_year,omitempty"`
	PageCount       int            `json:"page_count,omitempty"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	OpenLibraryKey  string         `gorm:"size:128" json:"open_library_key,omitempty"`
	Authors         []Author       `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Genres          []Genre        `gorm:"many2many:book_genres;" json:"genres,omitempty"`
	Status          *ReadingStatus `gorm:"foreignKey:BookID" json:"status,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AuthorNames joins the linked author names with ", ".
func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Rating struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	BookID  uint      `gorm:"uniqueIndex;not null" json:"book_id"`
	Rating  int       `gorm:"not null" json:"rating"` // 1..5
	Comment *string   `gorm:"type:text" json:"comment,omitempty"`
	RatedAt time.Time `gorm:"index" json:"rated_at"`
	Book    Book      `gorm:"foreignKey:BookID" json:"-"`
}

type Favourite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"uniqueIndex;not null" json:"book_id"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistItem is a book the user wants but does not own yet, so it has no
// row in books until it is acquired.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:512;not null" json:"title"`
	Authors   string    `gorm:"size:512" json:"authors,omitempty"` // comma separated
	ISBN      string    `gorm:"size:20" json:"isbn,omitempty"`
	CoverURL  string    `gorm:"size:2048" json:"cover_url,omitempty"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Author) TableName() string {
	return "authors"
}

func (Genre) TableName() string {
	return "genres"
}

func (Rating) TableName() string {
	return "ratings"
}

func (Favourite) TableName() string {
	return "favorites"
}

func (WishlistItem) TableName() string {
	return "wishlist"
}
