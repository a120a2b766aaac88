package lsp

import (
	"sync"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/parser"
)

// document is one open .dsl buffer with its latest parse.
type document struct {
	uri     string
	content string
	version int

	// script is the (possibly partial) AST from the last parse.
	script *ast.Script
	// diagnostics are the parse errors from the last parse.
	diagnostics []ast.ParseError
}

// documentStore tracks open documents. Every open and change reparses,
// scripts are small enough that incremental parsing would buy nothing.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*document
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]*document)}
}

// open registers a document and parses it.
func (ds *documentStore) open(uri, content string, version int) *document {
	return ds.set(uri, content, version)
}

// update replaces a document's content and reparses.
func (ds *documentStore) update(uri, content string, version int) *document {
	return ds.set(uri, content, version)
}

func (ds *documentStore) set(uri, content string, version int) *document {
	script, parseErrors := parser.Compile(content)

	doc := &document{
		uri:         uri,
		content:     content,
		version:     version,
		script:      script,
		diagnostics: parseErrors,
	}

	ds.mu.Lock()
	ds.docs[uri] = doc
	ds.mu.Unlock()

	return doc
}

// get returns the document, if open.
func (ds *documentStore) get(uri string) (*document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	doc, ok := ds.docs[uri]
	return doc, ok
}

// close forgets a document.
func (ds *documentStore) close(uri string) {
	ds.mu.Lock()
	delete(ds.docs, uri)
	ds.mu.Unlock()
}
