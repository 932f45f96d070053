// Package codegen lowers the AST into a linear, stack-oriented
// pseudo-assembly listing.
//
// Design: every expression leaves its value in eax. A binary operation keeps
// its left operand on the stack while the right one is evaluated, then
// combines eax (left) with ebx (right). Labels sit flush left, instructions
// are indented four spaces. The listing is illustrative and is never
// assembled or linked.
package codegen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

const indent = "    "

// Generated symbols contain a dot, which no identifier can.
const (
	// EntryLabel names the section holding top-level statements.
	EntryLabel = "rt.main"
	// SeqLen and SeqGet are the runtime helpers called by loops over
	// anything other than range.
	SeqLen = "rt.seq_len"
	SeqGet = "rt.seq_get"
)

// Generator lowers programs. Each Lower call starts from a clean state, so
// identical trees always produce identical listings.
type Generator struct {
	log *slog.Logger

	lines  []string
	labels int
	fn     *frame

	strs        map[string]int
	strOrder    []string
	globals     map[string]bool
	globalOrder []string
}

// frame is the storage layout of one emitted section.
type frame struct {
	// top marks the main section: user names there live in data symbols.
	top    bool
	params map[string]int
	slots  map[string]int
	nested []*frontend.FunctionDef
}

func newFrame(params []string, top bool) *frame {
	f := &frame{
		top:    top,
		params: make(map[string]int, len(params)),
		slots:  make(map[string]int),
	}
	for i, p := range params {
		f.params[p] = i
	}
	return f
}

// slot returns the 1-based slot of name, assigning the next one on first use.
func (f *frame) slot(name string) int {
	if k, ok := f.slots[name]; ok {
		return k
	}
	k := len(f.slots) + 1
	f.slots[name] = k
	return k
}

// bindLocals gives every name the body assigns or loops over its slot up
// front, in source order, so a read before the first write already resolves
// to the local. Nested definitions have frames of their own.
func (f *frame) bindLocals(stmts []frontend.Node) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *frontend.Block:
			f.bindLocals(n.Stmts)
		case *frontend.Assign:
			f.bind(n.Target)
		case *frontend.For:
			f.bind(n.Var)
			f.bindLocals(n.Body.Stmts)
		case *frontend.If:
			f.bindLocals(n.Body.Stmts)
		case *frontend.While:
			f.bindLocals(n.Body.Stmts)
		}
	}
}

func (f *frame) bind(name string) {
	if _, ok := f.params[name]; !ok {
		f.slot(name)
	}
}

func NewGenerator() *Generator {
	return &Generator{log: logger.With("component", "codegen")}
}

// Lower is a convenience wrapper around a fresh Generator.
func Lower(program *frontend.Block) ([]string, error) {
	return NewGenerator().Lower(program)
}

// Lower emits function sections in source order, then a main section for the
// remaining top-level statements, then the data section.
func (g *Generator) Lower(program *frontend.Block) ([]string, error) {
	if program == nil {
		return nil, fmt.Errorf("codegen: nil program")
	}
	g.reset()

	var defs []*frontend.FunctionDef
	var rest []frontend.Node
	for _, stmt := range program.Stmts {
		if def, ok := stmt.(*frontend.FunctionDef); ok {
			defs = append(defs, def)
		} else {
			rest = append(rest, stmt)
		}
	}

	for _, def := range defs {
		if err := g.function(def); err != nil {
			g.log.Debug("Lowering failed", "function", def.Name, "error", err)
			return nil, err
		}
	}
	if len(rest) > 0 {
		if err := g.section(EntryLabel, nil, rest, true); err != nil {
			g.log.Debug("Lowering failed", "function", EntryLabel, "error", err)
			return nil, err
		}
	}
	g.data()

	out := g.lines
	g.lines = nil
	g.log.Debug("Lowering complete", "functions", len(defs), "lines", len(out))
	return out, nil
}

func (g *Generator) reset() {
	g.lines = nil
	g.labels = 0
	g.fn = nil
	g.strs = make(map[string]int)
	g.strOrder = nil
	g.globals = make(map[string]bool)
	g.globalOrder = nil
}

func (g *Generator) function(def *frontend.FunctionDef) error {
	return g.section(def.Name, def.Params, def.Body.Stmts, false)
}

// section lowers one labelled frame. The body is lowered first so the frame
// knows how many slots to reserve. Nested definitions follow their parent.
func (g *Generator) section(name string, params []string, stmts []frontend.Node, top bool) error {
	f := newFrame(params, top)
	if !top {
		f.bindLocals(stmts)
	}
	saved := g.lines
	g.fn, g.lines = f, nil

	for _, stmt := range stmts {
		if err := g.stmt(stmt); err != nil {
			g.fn, g.lines = nil, saved
			return err
		}
	}
	body := g.lines
	g.fn, g.lines = nil, saved

	g.label(name)
	g.emit("push ebp")
	g.emit("mov ebp, esp")
	if n := len(f.slots); n > 0 {
		g.emit("sub esp, %d", 4*n)
	}
	g.lines = append(g.lines, body...)
	if len(f.slots) > 0 {
		g.emit("mov esp, ebp")
	}
	g.emit("pop ebp")
	g.emit("ret")

	for _, def := range f.nested {
		if err := g.function(def); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) stmt(n frontend.Node) error {
	switch n := n.(type) {
	case *frontend.Block:
		for _, s := range n.Stmts {
			if err := g.stmt(s); err != nil {
				return err
			}
		}

	case *frontend.FunctionDef:
		g.fn.nested = append(g.fn.nested, n)

	case *frontend.Assign:
		if err := g.expr(n.Value); err != nil {
			return err
		}
		g.emit("mov %s, eax", g.store(n.Target))

	case *frontend.Return:
		if err := g.expr(n.Value); err != nil {
			return err
		}
		g.emit("mov esp, ebp")
		g.emit("pop ebp")
		g.emit("ret")

	case *frontend.If:
		end := fmt.Sprintf(".Lendif_%d", g.next())
		if err := g.expr(n.Cond); err != nil {
			return err
		}
		g.emit("cmp eax, 0")
		g.emit("je %s", end)
		if err := g.stmt(n.Body); err != nil {
			return err
		}
		g.label(end)

	case *frontend.While:
		id := g.next()
		top, end := fmt.Sprintf(".Lwhile_%d", id), fmt.Sprintf(".Lendwhile_%d", id)
		g.label(top)
		if err := g.expr(n.Cond); err != nil {
			return err
		}
		g.emit("cmp eax, 0")
		g.emit("je %s", end)
		if err := g.stmt(n.Body); err != nil {
			return err
		}
		g.emit("jmp %s", top)
		g.label(end)

	case *frontend.For:
		return g.forLoop(n)

	default:
		return g.expr(n)
	}
	return nil
}

func (g *Generator) forLoop(n *frontend.For) error {
	id := g.next()
	top, end := fmt.Sprintf(".Lfor_%d", id), fmt.Sprintf(".Lendfor_%d", id)

	if call, ok := n.Iterable.(*frontend.FunctionCall); ok && call.Name == "range" && len(call.Args) == 2 {
		limit := g.hidden(fmt.Sprintf("for.end.%d", id))
		if err := g.expr(call.Args[0]); err != nil {
			return err
		}
		g.emit("push eax")
		if err := g.expr(call.Args[1]); err != nil {
			return err
		}
		g.emit("mov %s, eax", limit)
		g.emit("pop eax")
		v := g.store(n.Var)
		g.emit("mov %s, eax", v)

		g.label(top)
		g.emit("mov eax, %s", v)
		g.emit("cmp eax, %s", limit)
		g.emit("jge %s", end)
		if err := g.stmt(n.Body); err != nil {
			return err
		}
		g.emit("mov eax, %s", v)
		g.emit("add eax, 1")
		g.emit("mov %s, eax", v)
		g.emit("jmp %s", top)
		g.label(end)
		return nil
	}

	seq := g.hidden(fmt.Sprintf("for.seq.%d", id))
	idx := g.hidden(fmt.Sprintf("for.idx.%d", id))
	if err := g.expr(n.Iterable); err != nil {
		return err
	}
	g.emit("mov %s, eax", seq)
	g.emit("mov eax, 0")
	g.emit("mov %s, eax", idx)
	v := g.store(n.Var)

	g.label(top)
	g.emit("mov eax, %s", seq)
	g.emit("push eax")
	g.emit("call %s", SeqLen)
	g.emit("add esp, 4")
	g.emit("mov ebx, eax")
	g.emit("mov eax, %s", idx)
	g.emit("cmp eax, ebx")
	g.emit("jge %s", end)
	g.emit("mov eax, %s", idx)
	g.emit("push eax")
	g.emit("mov eax, %s", seq)
	g.emit("push eax")
	g.emit("call %s", SeqGet)
	g.emit("add esp, 8")
	g.emit("mov %s, eax", v)
	if err := g.stmt(n.Body); err != nil {
		return err
	}
	g.emit("mov eax, %s", idx)
	g.emit("add eax, 1")
	g.emit("mov %s, eax", idx)
	g.emit("jmp %s", top)
	g.label(end)
	return nil
}

func (g *Generator) expr(n frontend.Node) error {
	switch n := n.(type) {
	case *frontend.Num:
		g.emit("mov eax, %d", n.Value)
	case *frontend.Str:
		g.emit("mov eax, %s", g.str(n.Value))
	case *frontend.Var:
		g.emit("mov eax, %s", g.load(n.Name))
	case *frontend.BinOp:
		return g.binOp(n)
	case *frontend.FunctionCall:
		return g.call(n)
	case nil:
		return diag.New(diag.KindType, 0, "missing expression")
	default:
		return diag.New(diag.KindType, n.Pos(), "%T cannot be lowered as an expression", n)
	}
	return nil
}

var combine = map[frontend.TokenType][]string{
	frontend.PLUS:  {"add eax, ebx"},
	frontend.MINUS: {"sub eax, ebx"},
	frontend.MUL:   {"imul eax, ebx"},
	frontend.DIV:   {"cdq", "idiv ebx"},
	frontend.MOD:   {"cdq", "idiv ebx", "mov eax, edx"},
	frontend.AND:   {"and eax, ebx"},
	frontend.OR:    {"or eax, ebx"},
	frontend.XOR:   {"xor eax, ebx"},
}

var setcc = map[frontend.TokenType]string{
	frontend.EQEQ: "sete",
	frontend.NE:   "setne",
	frontend.GT:   "setg",
	frontend.LT:   "setl",
	frontend.GTE:  "setge",
	frontend.LTE:  "setle",
}

func (g *Generator) binOp(n *frontend.BinOp) error {
	ops, arith := combine[n.Op]
	set, cmp := setcc[n.Op]
	if !arith && !cmp {
		return diag.New(diag.KindUnsupportedOperator, n.Line, "cannot lower operator %s", n.Op)
	}

	if err := g.expr(n.Left); err != nil {
		return err
	}
	g.emit("push eax")
	if err := g.expr(n.Right); err != nil {
		return err
	}
	g.emit("mov ebx, eax")
	g.emit("pop eax")

	if arith {
		for _, op := range ops {
			g.emit("%s", op)
		}
		return nil
	}
	g.emit("cmp eax, ebx")
	g.emit("%s al", set)
	g.emit("movzx eax, al")
	return nil
}

// call pushes arguments last to first and pops them after the call returns.
func (g *Generator) call(n *frontend.FunctionCall) error {
	for i := len(n.Args) - 1; i >= 0; i-- {
		if err := g.expr(n.Args[i]); err != nil {
			return err
		}
		g.emit("push eax")
	}
	g.emit("call %s", n.Name)
	if len(n.Args) > 0 {
		g.emit("add esp, %d", 4*len(n.Args))
	}
	return nil
}

// load resolves a read: parameter, then local slot, then data symbol.
func (g *Generator) load(name string) string {
	if i, ok := g.fn.params[name]; ok {
		return param(i)
	}
	if !g.fn.top {
		if k, ok := g.fn.slots[name]; ok {
			return local(k)
		}
	}
	return g.global(name)
}

// store resolves a write. Writes inside a function never touch globals.
func (g *Generator) store(name string) string {
	if i, ok := g.fn.params[name]; ok {
		return param(i)
	}
	if g.fn.top {
		return g.global(name)
	}
	return local(g.fn.slot(name))
}

// hidden reserves a frame slot under a name no identifier can take.
func (g *Generator) hidden(name string) string {
	return local(g.fn.slot(name))
}

func (g *Generator) global(name string) string {
	if !g.globals[name] {
		g.globals[name] = true
		g.globalOrder = append(g.globalOrder, name)
	}
	return "[g." + name + "]"
}

func (g *Generator) str(s string) string {
	i, ok := g.strs[s]
	if !ok {
		i = len(g.strOrder)
		g.strs[s] = i
		g.strOrder = append(g.strOrder, s)
	}
	return fmt.Sprintf("str.%d", i)
}

func (g *Generator) data() {
	if len(g.globalOrder) == 0 && len(g.strOrder) == 0 {
		return
	}
	g.lines = append(g.lines, ".data")
	for _, name := range g.globalOrder {
		g.lines = append(g.lines, fmt.Sprintf("g.%s: dd 0", name))
	}
	for i, s := range g.strOrder {
		g.lines = append(g.lines, fmt.Sprintf("str.%d: db \"%s\", 0", i, s))
	}
}

func param(i int) string { return fmt.Sprintf("[ebp + %d]", 8+4*i) }
func local(k int) string { return fmt.Sprintf("[ebp - %d]", 4*k) }

func (g *Generator) next() int {
	id := g.labels
	g.labels++
	return id
}

func (g *Generator) emit(format string, args ...any) {
	g.lines = append(g.lines, indent+fmt.Sprintf(format, args...))
}

func (g *Generator) label(name string) {
	g.lines = append(g.lines, name+":")
}

// Format joins a listing into text with one line per entry.
func Format(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
