// Package lsp backs the language server: it keeps open documents,
// turns script sources into diagnostics, and answers completion,
// hover and signature queries from the engine routine table plus the
// current file's own declarations.
package lsp

import "sync"

// Document is one open editor buffer.
type Document struct {
	Text    string
	Version int32
}

type Store struct {
	mu   sync.RWMutex
	docs map[string]Document // uri -> document
}

func NewStore() *Store {
	return &Store{docs: map[string]Document{}}
}

func (s *Store) Set(uri, text string, version int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = Document{Text: text, Version: version}
}

func (s *Store) Get(uri string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *Store) Delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}
