// Package lsp implements a Language Server Protocol server for Parley
// dialogue scripts: live diagnostics, completion for keywords and step
// names, hover summaries, go-to-definition for step targets, document
// symbols, and whole-document formatting.
package lsp

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Server is the stdio language server.
type Server struct {
	documents *documentStore

	// conn is the JSON-RPC connection.
	conn jsonrpc2.Conn

	// client is used to push notifications (diagnostics) to the editor.
	client protocol.Client

	// logger for debugging; LSP owns stdout, so log to stderr.
	logger *log.Logger

	capabilities protocol.ServerCapabilities

	// rootPath is the workspace directory sent at initialize, "" when the
	// editor opened a single file.
	rootPath string

	// cancel signals server shutdown.
	cancel context.CancelFunc
}

// NewServer creates an LSP server instance.
func NewServer() *Server {
	return &Server{
		documents: newDocumentStore(),
		logger:    log.New(os.Stderr, "[LSP] ", log.LstdFlags),
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: false,
				},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{","},
				ResolveProvider:   false,
			},
			HoverProvider:          true,
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
			DocumentFormattingProvider: &protocol.DocumentFormattingOptions{
				WorkDoneProgressOptions: protocol.WorkDoneProgressOptions{
					WorkDoneProgress: false,
				},
			},
		},
	}
}

// Run serves LSP over stdin/stdout until the client sends exit or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting Parley Language Server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	s.client = protocol.ClientDispatcher(conn, zapLogger)

	conn.Go(ctx, s.handler())

	<-ctx.Done()

	s.logger.Println("Shutting down Parley Language Server")
	return conn.Close()
}

// handler returns the JSON-RPC dispatch function.
func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			return reply(ctx, nil, nil)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, req)
		case protocol.MethodTextDocumentDidOpen:
			return s.handleDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleDidClose(ctx, reply, req)
		case protocol.MethodTextDocumentDidSave:
			return s.handleDidSave(ctx, reply, req)
		case protocol.MethodTextDocumentCompletion:
			return s.handleCompletion(ctx, reply, req)
		case protocol.MethodTextDocumentHover:
			return s.handleHover(ctx, reply, req)
		case protocol.MethodTextDocumentDefinition:
			return s.handleDefinition(ctx, reply, req)
		case protocol.MethodTextDocumentDocumentSymbol:
			return s.handleDocumentSymbol(ctx, reply, req)
		case protocol.MethodTextDocumentFormatting:
			return s.handleFormatting(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse initialize params")
	}

	s.logger.Printf("Initialize from client: %v", params.ClientInfo)

	s.rootPath = workspaceRoot(&params)
	if s.rootPath != "" {
		s.logger.Printf("Workspace root: %s", s.rootPath)
	}

	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    "parley-lsp",
			Version: "0.1.0",
		},
	}

	return reply(ctx, result, nil)
}

// workspaceRoot resolves the workspace directory from initialize params.
// Editors send a file URI; the deprecated RootPath field is the fallback.
func workspaceRoot(params *protocol.InitializeParams) string {
	raw := string(params.RootURI)
	if !strings.HasPrefix(raw, "file://") {
		return params.RootPath
	}
	parsed, err := uri.Parse(raw)
	if err != nil {
		return params.RootPath
	}
	return parsed.Filename()
}

func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if err := reply(ctx, nil, nil); err != nil {
		s.logger.Printf("Error replying to exit: %v", err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didOpen params")
	}

	uri := string(params.TextDocument.URI)
	doc := s.documents.open(uri, params.TextDocument.Text, int(params.TextDocument.Version))

	s.publishDiagnostics(ctx, doc)

	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChange params")
	}

	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full document sync: the last change carries the whole buffer.
	uri := string(params.TextDocument.URI)
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	doc := s.documents.update(uri, content, int(params.TextDocument.Version))

	s.publishDiagnostics(ctx, doc)

	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didClose params")
	}

	s.documents.close(string(params.TextDocument.URI))

	return reply(ctx, nil, nil)
}

func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didSave params")
	}

	if doc, ok := s.documents.get(string(params.TextDocument.URI)); ok {
		s.publishDiagnostics(ctx, doc)
	}

	return reply(ctx, nil, nil)
}

// publishDiagnostics pushes the document's parse errors to the editor.
// An empty list clears previously shown diagnostics.
func (s *Server) publishDiagnostics(ctx context.Context, doc *document) {
	if s.client == nil {
		return
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.uri),
		Diagnostics: diagnosticsFor(doc),
	}

	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.logger.Printf("Error publishing diagnostics: %v", err)
	}
}

// diagnosticsFor converts parse errors to LSP diagnostics. Parser
// positions are 1-based, LSP wants 0-based.
func diagnosticsFor(doc *document) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(doc.diagnostics))
	for _, e := range doc.diagnostics {
		line := uint32(0)
		if e.Line > 0 {
			line = uint32(e.Line - 1)
		}
		char := uint32(0)
		if e.Column > 0 {
			char = uint32(e.Column - 1)
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: char},
				End:   protocol.Position{Line: line, Character: char + 1},
			},
			Severity: protocol.DiagnosticSeverityError,
			Source:   "parley",
			Message:  e.Message,
		})
	}
	return diagnostics
}

// replyWithError sends an LSP-compliant error response.
func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    code,
		Message: message,
	})
}

// stdrwc adapts stdin/stdout to io.ReadWriteCloser for the JSON-RPC
// stream.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
