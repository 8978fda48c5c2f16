package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/booksplit/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// pathstoreOr503 returns the client, or writes 503 when publishing is off.
func (s *Server) pathstoreOr503(w http.ResponseWriter) *pathstore.Client {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
	}
	return ps
}

// handleListBooks lists published books by their meta nodes.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	children, err := ps.ListChildren(r.Context(), pathstore.BooksPrefix, 200)
	if err != nil {
		jsonError(w, "failed to list books: "+err.Error(), http.StatusBadGateway)
		return
	}

	books := []map[string]any{}
	for _, child := range children {
		if !strings.HasSuffix(child.Key, "meta") {
			continue
		}
		books = append(books, map[string]any{
			"book_id": pathstore.BookIDFromKey(child.Key),
			"meta":    child.Value,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	bookID := chi.URLParam(r, "bookID")
	node, err := ps.GetNode(r.Context(), pathstore.MetaKey(bookID))
	if err != nil {
		jsonError(w, "failed to read book: "+err.Error(), http.StatusBadGateway)
		return
	}
	if node == nil {
		jsonError(w, "book not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book_id": bookID, "meta": node.Value})
}

// handleDeleteBook removes a published book and every unit under it.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	ps := s.pathstoreOr503(w)
	if ps == nil {
		return
	}
	bookID := chi.URLParam(r, "bookID")
	if err := ps.DeleteNode(r.Context(), pathstore.BookKey(bookID), true); err != nil {
		jsonError(w, "failed to delete book: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("deleted book", "book_id", bookID)
	writeJSON(w, http.StatusOK, map[string]any{"book_id": bookID, "deleted": true})
}
