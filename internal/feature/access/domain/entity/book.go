// Package entity defines the domain entities for the access feature.
package entity

import "strings"

// Book is the protected asset a reader asks to open.
// FilePath is the object-store key of the PDF; blank means no file was uploaded.
type Book struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	FilePath string `json:"filePath"`
}

// HasAsset reports whether a file is attached to the book.
func (b *Book) HasAsset() bool {
	return b != nil && strings.TrimSpace(b.FilePath) != ""
}
