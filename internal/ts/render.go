package ts

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/declbundle/internal/registry"
)

// RenderOptions direct how one declaration is rendered into output text.
type RenderOptions struct {
	// Renames maps an original spelling to its output spelling. It covers
	// the declaration's own name as well as every still-referenced
	// dependency and external import whose spelling changed.
	Renames map[string]string

	// Export emits a leading `export` keyword; when false, any export
	// keyword from the source is stripped.
	Export bool

	// StripConstEnum removes the `const` modifier from const enums so the
	// enum object is preserved at runtime.
	StripConstEnum bool
}

type span struct {
	start, end  int
	replacement string
}

// Render produces the output text for one declaration, applying renames by
// byte-offset splicing over the original source. The source tree is never
// mutated.
func (d *DeclInfo) Render(opts RenderOptions) string {
	if d.Global {
		// Global augmentation blocks ship verbatim: their members
		// intentionally shadow ambient globals.
		return d.File.text(d.Node)
	}

	spans := d.renameSpans(opts)
	if d.Kind == registry.KindEnum && d.ConstEnum && opts.StripConstEnum {
		if constTok := firstChildOfKind(d.Node, "const"); constTok != nil {
			spans = append(spans, span{
				start: int(constTok.StartByte()),
				end:   int(constTok.EndByte()) + 1, // trailing space
			})
		}
	}

	body := d.splice(spans)

	var b strings.Builder
	if opts.Export {
		b.WriteString("export ")
	}
	if d.needsDeclare() && !strings.HasPrefix(body, "declare ") {
		b.WriteString("declare ")
	}
	if d.Kind == registry.KindVariable {
		b.WriteString(d.VarKeyword)
		b.WriteString(" ")
		b.WriteString(body)
		b.WriteString(";")
		return b.String()
	}
	b.WriteString(body)
	return b.String()
}

// needsDeclare reports whether the declaration requires a `declare` modifier
// at the top level of a declaration file.
func (d *DeclInfo) needsDeclare() bool {
	switch d.Kind {
	case registry.KindClass, registry.KindEnum, registry.KindFunction,
		registry.KindVariable, registry.KindModule:
		return true
	default:
		return false
	}
}

// renameSpans collects replacement spans for every identifier occurrence
// that resolves to a renamed binding. Property names, qualified-name tails,
// and shadowed type parameters are skipped.
func (d *DeclInfo) renameSpans(opts RenderOptions) []span {
	if len(opts.Renames) == 0 {
		return nil
	}
	shadowed := collectTypeParameters(d.Node, d.File)

	var spans []span
	record := func(n *sitter.Node) {
		name := d.File.text(n)
		if _, ok := shadowed[name]; ok {
			return
		}
		if repl, ok := opts.Renames[name]; ok && repl != name {
			spans = append(spans, span{
				start:       int(n.StartByte()),
				end:         int(n.EndByte()),
				replacement: repl,
			})
		}
	}

	walkTree(d.Node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "nested_type_identifier", "nested_identifier":
			if head := leftmostIdentifier(n); head != nil {
				record(head)
			}
			return false
		case "member_expression":
			if head := leftmostIdentifier(n); head != nil {
				record(head)
				return false
			}
			return true
		case "type_identifier":
			record(n)
			return true
		case "identifier":
			if isValueReference(n) || isStatementName(n) {
				record(n)
			}
			return true
		}
		return true
	})
	return spans
}

// isStatementName reports whether an identifier is the declared name of an
// enclosing declaration, which must follow the declaration's own rename.
func isStatementName(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "enum_declaration", "function_declaration", "function_signature",
		"variable_declarator", "internal_module", "module":
		return sameNode(parent.ChildByFieldName("name"), n)
	}
	return false
}

// splice applies replacement spans to the declaration's source text. Spans
// are applied back-to-front so earlier offsets stay valid.
func (d *DeclInfo) splice(spans []span) string {
	base := int(d.Node.StartByte())
	text := d.File.text(d.Node)
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	for _, s := range spans {
		start, end := s.start-base, s.end-base
		if start < 0 || end > len(text) || start > end {
			continue
		}
		text = text[:start] + s.replacement + text[end:]
	}
	return text
}
