package pathstore

import "strings"

// BooksPrefix is the key prefix every published book lives under.
const BooksPrefix = "books"

// BookKey is the root key of a published book.
func BookKey(bookID string) string { return BooksPrefix + "/" + bookID }

// MetaKey holds the book's summary node.
func MetaKey(bookID string) string { return BookKey(bookID) + "/meta" }

// TOCKey holds the table of contents node.
func TOCKey(bookID string) string { return BookKey(bookID) + "/toc" }

// UnitKey addresses one chapter or section. Pathstore reports key paths
// dot-separated, so dotted unit IDs are rewritten with underscores.
func UnitKey(bookID, unitID string) string {
	return BookKey(bookID) + "/units/" + strings.ReplaceAll(unitID, ".", "_")
}

// BookIDFromKey returns the book ID of a key under BooksPrefix, accepting
// both slash and dot separated forms.
func BookIDFromKey(key string) string {
	key = strings.ReplaceAll(key, ".", "/")
	rest, ok := strings.CutPrefix(key, BooksPrefix+"/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}
