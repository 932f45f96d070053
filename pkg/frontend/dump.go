package frontend

import (
	"fmt"
	"strings"
)

// Dump renders the tree rooted at n as indented text, one node per line.
// Source positions are omitted, so structurally equal trees dump equally.
func Dump(n Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, indent int) {
	prefix := strings.Repeat(" ", indent)

	switch n := n.(type) {
	case *Block:
		fmt.Fprintf(sb, "%sBlock:\n", prefix)
		for _, s := range n.Stmts {
			dump(sb, s, indent+2)
		}
	case *FunctionDef:
		fmt.Fprintf(sb, "%sFunctionDef(name=%s, params=[%s]):\n", prefix, n.Name, strings.Join(n.Params, " "))
		dump(sb, n.Body, indent+2)
	case *Assign:
		fmt.Fprintf(sb, "%sAssign(target=%s):\n", prefix, n.Target)
		dump(sb, n.Value, indent+2)
	case *If:
		fmt.Fprintf(sb, "%sIf:\n", prefix)
		dump(sb, n.Cond, indent+2)
		dump(sb, n.Body, indent+2)
	case *While:
		fmt.Fprintf(sb, "%sWhile:\n", prefix)
		dump(sb, n.Cond, indent+2)
		dump(sb, n.Body, indent+2)
	case *For:
		fmt.Fprintf(sb, "%sFor(var=%s):\n", prefix, n.Var)
		dump(sb, n.Iterable, indent+2)
		dump(sb, n.Body, indent+2)
	case *FunctionCall:
		fmt.Fprintf(sb, "%sFunctionCall(name=%s):\n", prefix, n.Name)
		for _, a := range n.Args {
			dump(sb, a, indent+2)
		}
	case *Return:
		fmt.Fprintf(sb, "%sReturn:\n", prefix)
		dump(sb, n.Value, indent+2)
	case *BinOp:
		fmt.Fprintf(sb, "%sBinOp(op=%s):\n", prefix, n.Op)
		dump(sb, n.Left, indent+2)
		dump(sb, n.Right, indent+2)
	case *Num:
		fmt.Fprintf(sb, "%sNum(%d)\n", prefix, n.Value)
	case *Str:
		fmt.Fprintf(sb, "%sStr(%q)\n", prefix, n.Value)
	case *Var:
		fmt.Fprintf(sb, "%sVar(%s)\n", prefix, n.Name)
	default:
		fmt.Fprintf(sb, "%sUnknown(%T)\n", prefix, n)
	}
}
