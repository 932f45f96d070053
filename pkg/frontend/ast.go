// Package frontend implements lexing, parsing and AST construction for the
// indentation-sensitive source language.
//
// Design: Minimal, focused on correctness. The AST is a closed set of node
// types; consumers switch over it and reject anything they do not know.
package frontend

// Node is any AST node. The unexported marker keeps the set closed.
type Node interface {
	node()
	// Pos returns the source line of the node's first token.
	Pos() int
}

// Block is an ordered statement sequence; the parser's root is a Block.
type Block struct {
	Stmts []Node
	Line  int
}

// Expressions
type Num struct {
	Value int64
	Line  int
}

type Str struct {
	Value string
	Line  int
}

type Var struct {
	Name string
	Line int
}

type BinOp struct {
	Left  Node
	Op    TokenType
	Right Node
	Line  int
}

type FunctionCall struct {
	Name string
	Args []Node
	Line int
}

// Statements
type Assign struct {
	Target string
	Value  Node
	Line   int
}

type If struct {
	Cond Node
	Body *Block
	Line int
}

type While struct {
	Cond Node
	Body *Block
	Line int
}

type For struct {
	Var      string
	Iterable Node
	Body     *Block
	Line     int
}

type FunctionDef struct {
	Name   string
	Params []string
	Body   *Block
	Line   int
}

type Return struct {
	Value Node
	Line  int
}

func (Block) node()        {}
func (Num) node()          {}
func (Str) node()          {}
func (Var) node()          {}
func (BinOp) node()        {}
func (FunctionCall) node() {}
func (Assign) node()       {}
func (If) node()           {}
func (While) node()        {}
func (For) node()          {}
func (FunctionDef) node()  {}
func (Return) node()       {}

func (n Block) Pos() int        { return n.Line }
func (n Num) Pos() int          { return n.Line }
func (n Str) Pos() int          { return n.Line }
func (n Var) Pos() int          { return n.Line }
func (n BinOp) Pos() int        { return n.Line }
func (n FunctionCall) Pos() int { return n.Line }
func (n Assign) Pos() int       { return n.Line }
func (n If) Pos() int           { return n.Line }
func (n While) Pos() int        { return n.Line }
func (n For) Pos() int          { return n.Line }
func (n FunctionDef) Pos() int  { return n.Line }
func (n Return) Pos() int       { return n.Line }

// CountNodes returns the number of nodes in the tree rooted at n.
func CountNodes(n Node) int {
	switch n := n.(type) {
	case *Block:
		count := 1
		for _, s := range n.Stmts {
			count += CountNodes(s)
		}
		return count
	case *BinOp:
		return 1 + CountNodes(n.Left) + CountNodes(n.Right)
	case *FunctionCall:
		count := 1
		for _, a := range n.Args {
			count += CountNodes(a)
		}
		return count
	case *Assign:
		return 1 + CountNodes(n.Value)
	case *If:
		return 1 + CountNodes(n.Cond) + CountNodes(n.Body)
	case *While:
		return 1 + CountNodes(n.Cond) + CountNodes(n.Body)
	case *For:
		return 1 + CountNodes(n.Iterable) + CountNodes(n.Body)
	case *FunctionDef:
		return 1 + CountNodes(n.Body)
	case *Return:
		return 1 + CountNodes(n.Value)
	case nil:
		return 0
	default:
		return 1
	}
}
