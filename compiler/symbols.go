package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Symbol table
// ---------------------------------------------------------------------------

// MaxSymbols is the capacity of a symbol table.
const MaxSymbols = 500

// SymbolKind is the kind of a declared name. The values appear in the
// symbol table dump.
type SymbolKind int

const (
	Constant  SymbolKind = 1
	Variable  SymbolKind = 2
	Procedure SymbolKind = 3
)

func (k SymbolKind) String() string {
	switch k {
	case Constant:
		return "const"
	case Variable:
		return "var"
	case Procedure:
		return "procedure"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is one declared name.
type Symbol struct {
	Kind    SymbolKind
	Name    string
	Value   int // constants only
	Level   int // lexical level of the declaring block
	Address int // frame offset for variables, instruction index for procedures
	Used    bool
	Pos     Position // declaration site, zero if unknown
}

// SymbolTable is the flat, append-only registry of every name declared in a
// program. Lookups are not scoped: a name stays visible to everything that
// follows its declaration.
type SymbolTable struct {
	entries []*Symbol
	limit   int
}

// NewSymbolTable creates an empty table holding up to MaxSymbols entries.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{limit: MaxSymbols}
}

// Lookup returns the first entry named name and marks it used.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for _, sym := range t.entries {
		if sym.Name == name {
			sym.Used = true
			return sym, true
		}
	}
	return nil, false
}

// Declare appends sym. It fails if the name is already declared or the table
// is full.
func (t *SymbolTable) Declare(sym Symbol) (*Symbol, error) {
	if _, ok := t.Lookup(sym.Name); ok {
		return nil, &Error{Kind: SemanticError, Pos: sym.Pos, Msg: "symbol name has already been declared"}
	}
	if len(t.entries) >= t.limit {
		return nil, &Error{Kind: ResourceError, Pos: sym.Pos, Msg: fmt.Sprintf("symbol table is full (%d entries)", t.limit)}
	}
	entry := sym
	t.entries = append(t.entries, &entry)
	return &entry, nil
}

// Len returns the number of entries.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// Entries returns copies of all entries in declaration order.
func (t *SymbolTable) Entries() []Symbol {
	out := make([]Symbol, len(t.entries))
	for i, sym := range t.entries {
		out[i] = *sym
	}
	return out
}
