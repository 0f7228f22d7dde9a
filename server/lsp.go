package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/pl0/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "pl0-lsp"

var lspLog = commonlog.GetLogger("pl0.lsp")

// document is an open editor buffer and the result of compiling it.
type document struct {
	text   string
	tokens []compiler.Token
	result *compiler.Result
	err    error
}

// analyze scans and compiles text. The symbol table of a failed compile
// still holds everything declared before the error.
func analyze(text string) *document {
	tokens := compiler.NewLexer(text).Tokens()
	res, err := compiler.Compile(tokens)
	return &document{text: text, tokens: tokens, result: res, err: err}
}

func (d *document) symbols() *compiler.SymbolTable {
	if d.result == nil {
		return nil
	}
	return d.result.Symbols
}

// LspServer provides editor features for PL/0 source files.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]*document // URI → latest analysis

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]*document),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	doc := s.update(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, doc)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc := s.update(uri, whole.Text)
			s.publishDiagnostics(ctx, uri, doc)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) update(uri protocol.DocumentUri, text string) *document {
	doc := analyze(text)
	if doc.err != nil {
		lspLog.Debugf("%s: %v", uri, doc.err)
	}
	s.mu.Lock()
	s.docs[string(uri)] = doc
	s.mu.Unlock()
	return doc
}

func (s *LspServer) document(uri protocol.DocumentUri) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[string(uri)]
	return doc, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(doc.text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(doc.symbols(), prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc.symbols(), word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	doc, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	loc := definition(uri, doc.symbols(), word)
	if loc == nil {
		return nil, nil
	}
	return loc, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	doc, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return references(uri, doc.tokens, word), nil
}

// --- Analysis-backed logic ---

func complete(symbols *compiler.SymbolTable, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	for _, kw := range compiler.Keywords() {
		if strings.HasPrefix(kw, prefix) {
			kind := protocol.CompletionItemKindKeyword
			detail := "keyword"
			name := kw
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &name,
			})
		}
	}

	if symbols != nil {
		for _, sym := range symbols.Entries() {
			if !strings.HasPrefix(sym.Name, prefix) {
				continue
			}
			kind := completionKind(sym.Kind)
			detail := sym.Kind.String()
			name := sym.Name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &name,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func completionKind(k compiler.SymbolKind) protocol.CompletionItemKind {
	switch k {
	case compiler.Constant:
		return protocol.CompletionItemKindConstant
	case compiler.Procedure:
		return protocol.CompletionItemKindFunction
	}
	return protocol.CompletionItemKindVariable
}

func hover(symbols *compiler.SymbolTable, word string) *protocol.Hover {
	if symbols == nil {
		return nil
	}
	sym, ok := findSymbol(symbols, word)
	if !ok {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** %s", sym.Name, sym.Kind)
	switch sym.Kind {
	case compiler.Constant:
		fmt.Fprintf(&b, " = %d", sym.Value)
	case compiler.Variable:
		fmt.Fprintf(&b, "\n\nlevel %d, frame offset %d", sym.Level, sym.Address)
	case compiler.Procedure:
		fmt.Fprintf(&b, "\n\nlevel %d, code at instruction %d", sym.Level, sym.Address)
	}
	if !sym.Used {
		b.WriteString("\n\nnever referenced")
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// findSymbol looks name up without marking it used.
func findSymbol(symbols *compiler.SymbolTable, name string) (compiler.Symbol, bool) {
	for _, sym := range symbols.Entries() {
		if sym.Name == name {
			return sym, true
		}
	}
	return compiler.Symbol{}, false
}

func definition(uri protocol.DocumentUri, symbols *compiler.SymbolTable, word string) *protocol.Location {
	if symbols == nil {
		return nil
	}
	sym, ok := findSymbol(symbols, word)
	if !ok || !sym.Pos.IsValid() {
		return nil
	}
	return &protocol.Location{URI: uri, Range: tokenRange(sym.Pos, sym.Name)}
}

func references(uri protocol.DocumentUri, tokens []compiler.Token, word string) []protocol.Location {
	var locations []protocol.Location
	for _, tok := range tokens {
		if tok.Kind == compiler.TokenIdent && tok.Text == word {
			locations = append(locations, protocol.Location{URI: uri, Range: tokenRange(tok.Pos, tok.Text)})
		}
	}
	return locations
}

// tokenRange converts a 1-based source position into a 0-based LSP range
// spanning text.
func tokenRange(pos compiler.Position, text string) protocol.Range {
	line := protocol.UInteger(pos.Line - 1)
	col := protocol.UInteger(pos.Column - 1)
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: col},
		End:   protocol.Position{Line: line, Character: col + protocol.UInteger(len(text))},
	}
}

// --- Diagnostics ---

// diagnostics reports the compile error of doc, if any.
func diagnostics(doc *document) []protocol.Diagnostic {
	if doc.err == nil {
		return []protocol.Diagnostic{}
	}

	var rng protocol.Range
	var cerr *compiler.Error
	if errors.As(doc.err, &cerr) && cerr.Pos.IsValid() {
		rng = tokenRange(cerr.Pos, tokenTextAt(doc.tokens, cerr.Pos))
	}
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range:    rng,
		Severity: &severity,
		Source:   &source,
		Message:  doc.err.Error(),
	}}
}

func tokenTextAt(tokens []compiler.Token, pos compiler.Position) string {
	for _, tok := range tokens {
		if tok.Pos != pos {
			continue
		}
		switch {
		case tok.Kind.HasText():
			return tok.Text
		case tok.Kind == compiler.TokenEOF || tok.Kind == compiler.TokenSkip:
			return ""
		default:
			return tok.Kind.String()
		}
	}
	return ""
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, doc *document) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(doc),
	})
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentChar(line[end]) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isIdentChar(c byte) bool {
	ch := rune(c)
	return ch < unicode.MaxASCII && (unicode.IsLetter(ch) || unicode.IsDigit(ch))
}

func boolPtr(b bool) *bool {
	return &b
}
