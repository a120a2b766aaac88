package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/format"
)

// statementKeywords are offered as completions at statement position,
// with hover documentation.
var statementKeywords = []struct {
	Label string
	Doc   string
}{
	{"Step", "Declares a named dialogue step. Execution enters the first step in the file."},
	{"Speak", "Sends a line to the user: `Speak \"text\"` or any expression."},
	{"Listen", "Suspends the step until the next user utterance. Optional timeouts: `Listen 5, 30`."},
	{"Branch", "Routes a recognized intent to a step: `Branch \"intent\", target_step`."},
	{"Silence", "Names the step that handles silent input: `Silence target_step`."},
	{"Default", "Names the step that handles unmatched input: `Default target_step`."},
	{"Exit", "Finishes the dialogue when the step completes."},
	{"Goto", "Transfers control to another step immediately: `Goto target_step`."},
	{"Set", "Assigns a session variable: `Set $name = expression`."},
	{"If", "Conditional block: `If condition` ... `Else` ... `EndIf`."},
	{"Else", "Alternative branch of an `If` block."},
	{"EndIf", "Closes an `If` block."},
	{"While", "Loop while a condition holds: `While condition` ... `EndWhile`."},
	{"EndWhile", "Closes a `While` block."},
	{"Call", "Invokes a registered service: `Call service(args) = $result`."},
}

// targetPosition matches a line whose cursor sits where a step name
// belongs: after Goto/Silence/Default, or after a Branch's intent
// literal and comma.
var targetPosition = regexp.MustCompile(`(?:\b(?:Goto|Silence|Default)\s+\w*|\bBranch\s+"[^"]*"\s*,\s*\w*)$`)

func (s *Server) handleCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	doc, ok := s.documents.get(string(params.TextDocument.URI))
	if !ok {
		return reply(ctx, protocol.CompletionList{IsIncomplete: false}, nil)
	}

	lineText, _ := lineAt(doc.content, int(params.Position.Line))
	prefix := lineText
	if int(params.Position.Character) < len(lineText) {
		prefix = lineText[:params.Position.Character]
	}

	var items []protocol.CompletionItem

	if targetPosition.MatchString(prefix) {
		// Only step names make sense here.
		items = stepCompletions(doc.script)
	} else {
		for _, kw := range statementKeywords {
			items = append(items, protocol.CompletionItem{
				Label:  kw.Label,
				Kind:   protocol.CompletionItemKindKeyword,
				Detail: "keyword",
				Documentation: protocol.MarkupContent{
					Kind:  protocol.Markdown,
					Value: kw.Doc,
				},
				InsertTextFormat: protocol.InsertTextFormatPlainText,
			})
		}
		items = append(items, stepCompletions(doc.script)...)
	}

	result := protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}

	return reply(ctx, result, nil)
}

func stepCompletions(script *ast.Script) []protocol.CompletionItem {
	if script == nil {
		return nil
	}

	items := make([]protocol.CompletionItem, 0, len(script.Order))
	for _, step := range script.StepsInOrder() {
		items = append(items, protocol.CompletionItem{
			Label:            step.Name,
			Kind:             protocol.CompletionItemKindFunction,
			Detail:           "step",
			InsertTextFormat: protocol.InsertTextFormatPlainText,
		})
	}
	return items
}

func (s *Server) handleHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	doc, ok := s.documents.get(string(params.TextDocument.URI))
	if !ok {
		return reply(ctx, nil, nil)
	}

	lineText, ok := lineAt(doc.content, int(params.Position.Line))
	if !ok {
		return reply(ctx, nil, nil)
	}

	word, start := wordAt(lineText, int(params.Position.Character))
	if word == "" {
		return reply(ctx, nil, nil)
	}

	var contents string
	if step, ok := lookupStep(doc.script, word); ok {
		contents = stepSummary(step)
	} else {
		for _, kw := range statementKeywords {
			if kw.Label == word {
				contents = fmt.Sprintf("**%s**\n\n%s", kw.Label, kw.Doc)
				break
			}
		}
	}
	if contents == "" {
		return reply(ctx, nil, nil)
	}

	result := protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: contents,
		},
		Range: &protocol.Range{
			Start: protocol.Position{Line: params.Position.Line, Character: uint32(start)},
			End:   protocol.Position{Line: params.Position.Line, Character: uint32(start + len(word))},
		},
	}

	return reply(ctx, result, nil)
}

// stepSummary renders the hover card for a step.
func stepSummary(step *ast.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Step %s**\n\n%d statement(s)", step.Name, len(step.Statements))

	for _, branch := range step.Branches {
		fmt.Fprintf(&b, "\n- `%s` → %s", branch.Intent, branch.Target)
	}
	if step.SilenceTarget != "" {
		fmt.Fprintf(&b, "\n- silence → %s", step.SilenceTarget)
	}
	if step.DefaultTarget != "" {
		fmt.Fprintf(&b, "\n- default → %s", step.DefaultTarget)
	}
	if step.IsExit {
		b.WriteString("\n\nExits the dialogue.")
	}

	return b.String()
}

func (s *Server) handleDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse definition params")
	}

	doc, ok := s.documents.get(string(params.TextDocument.URI))
	if !ok {
		return reply(ctx, nil, nil)
	}

	lineText, ok := lineAt(doc.content, int(params.Position.Line))
	if !ok {
		return reply(ctx, nil, nil)
	}

	word, _ := wordAt(lineText, int(params.Position.Character))
	step, ok := lookupStep(doc.script, word)
	if !ok {
		return reply(ctx, nil, nil)
	}

	result := protocol.Location{
		URI:   params.TextDocument.URI,
		Range: stepHeaderRange(step),
	}

	return reply(ctx, result, nil)
}

func (s *Server) handleDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	doc, ok := s.documents.get(string(params.TextDocument.URI))
	if !ok || doc.script == nil {
		return reply(ctx, []protocol.DocumentSymbol{}, nil)
	}

	symbols := make([]protocol.DocumentSymbol, 0, len(doc.script.Order))
	for _, step := range doc.script.StepsInOrder() {
		detail := fmt.Sprintf("%d statement(s)", len(step.Statements))
		if step.IsExit {
			detail += ", exit"
		}

		r := stepHeaderRange(step)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           step.Name,
			Kind:           protocol.SymbolKindFunction,
			Detail:         detail,
			Range:          r,
			SelectionRange: r,
		})
	}

	return reply(ctx, symbols, nil)
}

func (s *Server) handleFormatting(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentFormattingParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse formatting params")
	}

	doc, ok := s.documents.get(string(params.TextDocument.URI))
	if !ok {
		return reply(ctx, nil, nil)
	}

	formatted, err := format.New(s.formatConfig()).Format(doc.content)
	if err != nil {
		// Broken scripts cannot be formatted; the diagnostics already
		// tell the author what to fix.
		return reply(ctx, nil, nil)
	}
	if formatted == doc.content {
		return reply(ctx, []protocol.TextEdit{}, nil)
	}

	lines := strings.Split(doc.content, "\n")
	end := protocol.Position{
		Line:      uint32(len(lines) - 1),
		Character: uint32(len(lines[len(lines)-1])),
	}

	edits := []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   end,
			},
			NewText: formatted,
		},
	}

	return reply(ctx, edits, nil)
}

// formatConfig loads the workspace's .parley-format.yml, the same file the
// fmt command honors. Missing or unreadable configs fall back to defaults.
func (s *Server) formatConfig() *format.Config {
	if s.rootPath == "" {
		return format.DefaultConfig()
	}
	cfg, err := format.LoadConfig(filepath.Join(s.rootPath, ".parley-format.yml"))
	if err != nil {
		return format.DefaultConfig()
	}
	return cfg
}

// lookupStep resolves a word to a step definition.
func lookupStep(script *ast.Script, name string) (*ast.Step, bool) {
	if script == nil || name == "" {
		return nil, false
	}
	return script.Lookup(name)
}

// stepHeaderRange covers the step's name on its header line, 0-based.
func stepHeaderRange(step *ast.Step) protocol.Range {
	line := uint32(0)
	if step.Loc.Line > 0 {
		line = uint32(step.Loc.Line - 1)
	}
	char := uint32(0)
	if step.Loc.Column > 0 {
		char = uint32(step.Loc.Column - 1)
	}

	return protocol.Range{
		Start: protocol.Position{Line: line, Character: char},
		End:   protocol.Position{Line: line, Character: char + uint32(len("Step ")+len(step.Name))},
	}
}

// lineAt returns the 0-based line of content.
func lineAt(content string, line int) (string, bool) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return "", false
	}
	return lines[line], true
}

// wordAt extracts the identifier covering char, and its start column.
func wordAt(lineText string, char int) (string, int) {
	if char > len(lineText) {
		char = len(lineText)
	}

	isWord := func(b byte) bool {
		return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
	}

	start := char
	for start > 0 && isWord(lineText[start-1]) {
		start--
	}
	end := char
	for end < len(lineText) && isWord(lineText[end]) {
		end++
	}

	if start == end {
		return "", char
	}
	return lineText[start:end], start
}
