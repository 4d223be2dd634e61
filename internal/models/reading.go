// Package models defines the domain types for the reading ledger.
package models

import "time"

// Reading is the typed view of one reading file's frontmatter.
// Finished is nil while the book is still being read.
type Reading struct {
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Finished   *time.Time `json:"finished"`
	CoverImage string     `json:"coverImage,omitempty"`
	Audiobook  bool       `json:"audiobook,omitempty"`
	Favorite   bool       `json:"favorite,omitempty"`
}

// InProgress reports whether the reading has no finish date.
func (r Reading) InProgress() bool {
	return r.Finished == nil
}

// PublishedReading is one entry of the public reading list.
type PublishedReading struct {
	Slug string `json:"slug"`
	Reading
	Content   string `json:"content"`
	BaseSlug  string `json:"baseSlug"`
	ReadCount int    `json:"readCount"`
}
