package lua

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tslua "github.com/smacker/go-tree-sitter/lua"

	"github.com/ben-ranford/luapack/internal/bundle"
)

var requireCallees = map[string]bool{
	"require":                   true,
	bundle.OriginalRequireAlias: true,
}

// SyntaxScanner finds require calls in the Lua syntax tree instead of by line
// patterns, so calls inside block comments or strings are never reported and
// calls spanning several lines are.
type SyntaxScanner struct {
	ignore map[string]bool
}

func NewSyntaxScanner(ignore []string) *SyntaxScanner {
	set := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = true
		}
	}
	return &SyntaxScanner{ignore: set}
}

func (s *SyntaxScanner) Scan(text string) []string {
	imports := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return imports
	}
	content := []byte(text)
	tree, err := parse(context.Background(), content)
	if err != nil || tree == nil {
		return imports
	}
	defer tree.Close()

	seen := make(map[string]bool)
	walkNode(tree.RootNode(), func(node *sitter.Node) {
		if node.Type() != "function_call" {
			return
		}
		name, ok := requiredModule(node, content)
		if !ok || s.ignore[name] || seen[name] {
			return
		}
		seen[name] = true
		imports = append(imports, name)
	})
	return imports
}

func parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tslua.GetLanguage())
	return parser.ParseCtx(ctx, nil, content)
}

func requiredModule(call *sitter.Node, content []byte) (string, bool) {
	callee := call.ChildByFieldName("name")
	if callee == nil && call.NamedChildCount() > 0 {
		callee = call.NamedChild(0)
	}
	if callee == nil || callee.Type() != "identifier" || !requireCallees[nodeText(callee, content)] {
		return "", false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil && call.NamedChildCount() > 1 {
		args = call.NamedChild(int(call.NamedChildCount()) - 1)
	}
	literal := soleStringArgument(args)
	if literal == nil {
		return "", false
	}
	return extractStringLiteral(literal, content)
}

// soleStringArgument returns the literal only when it is the whole argument
// list. Concatenations and extra arguments resolve at runtime.
func soleStringArgument(args *sitter.Node) *sitter.Node {
	if args == nil {
		return nil
	}
	if args.Type() == "string" {
		return args
	}
	var literal *sitter.Node
	count := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		count++
		literal = child
	}
	if count != 1 || literal.Type() != "string" {
		return nil
	}
	return literal
}

func walkNode(node *sitter.Node, visit func(*sitter.Node)) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		visit(child)
		walkNode(child, visit)
	}
}

func extractStringLiteral(node *sitter.Node, content []byte) (string, bool) {
	text := nodeText(node, content)
	if len(text) < 2 {
		return "", false
	}
	quote := text[0]
	if (quote != '"' && quote != '\'') || text[len(text)-1] != quote {
		return "", false
	}
	text = text[1 : len(text)-1]
	return text, text != ""
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}
