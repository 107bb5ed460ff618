package ts

import sitter "github.com/tree-sitter/go-tree-sitter"

// GlobalOracle answers whether an identifier resolves to an ambient global.
// It combines a table of standard-library and DOM globals with names
// observed inside `declare global` blocks during collection.
type GlobalOracle struct {
	extra map[string]struct{}
}

// NewGlobalOracle creates an oracle seeded with the standard ambient names.
func NewGlobalOracle() *GlobalOracle {
	return &GlobalOracle{extra: make(map[string]struct{})}
}

// AddGlobal registers a name observed in a global augmentation block.
func (o *GlobalOracle) AddGlobal(name string) {
	o.extra[name] = struct{}{}
}

// IsAmbientGlobal reports whether name resolves to a true ambient global.
func (o *GlobalOracle) IsAmbientGlobal(name string) bool {
	if _, ok := o.extra[name]; ok {
		return true
	}
	_, ok := ambientGlobals[name]
	return ok
}

// GlobalMembers returns the names declared inside a `declare global` block,
// so they can be registered with the oracle as intentional shadowing.
func GlobalMembers(d *DeclInfo) []string {
	if !d.Global {
		return nil
	}
	var names []string
	seen := make(map[string]struct{})
	walkTree(d.Node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "interface_declaration", "type_alias_declaration", "class_declaration",
			"abstract_class_declaration", "enum_declaration", "function_declaration",
			"function_signature", "internal_module":
			name := d.File.text(n.ChildByFieldName("name"))
			if name != "" {
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
			}
			return false
		case "variable_declarator":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
				name := d.File.text(nameNode)
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
			}
			return false
		}
		return true
	})
	return names
}

// ambientGlobals lists identifiers predeclared by the ECMAScript standard
// library and the DOM. Declarations spelled like one of these must be
// renamed out of the way unless they live inside a global augmentation.
var ambientGlobals = map[string]struct{}{
	"Array":              {},
	"ArrayBuffer":        {},
	"AsyncIterable":      {},
	"AsyncIterator":      {},
	"Atomics":            {},
	"BigInt":             {},
	"Blob":               {},
	"Boolean":            {},
	"DataView":           {},
	"Date":               {},
	"Document":           {},
	"Element":            {},
	"Error":              {},
	"Event":              {},
	"EventTarget":        {},
	"Float32Array":       {},
	"Float64Array":       {},
	"Function":           {},
	"HTMLElement":        {},
	"Infinity":           {},
	"Int8Array":          {},
	"Int16Array":         {},
	"Int32Array":         {},
	"Intl":               {},
	"Iterable":           {},
	"IterableIterator":   {},
	"Iterator":           {},
	"JSON":               {},
	"Map":                {},
	"Math":               {},
	"NaN":                {},
	"Node":               {},
	"Number":             {},
	"Object":             {},
	"Partial":            {},
	"Pick":               {},
	"Promise":            {},
	"PromiseLike":        {},
	"Proxy":              {},
	"Readonly":           {},
	"ReadonlyArray":      {},
	"Record":             {},
	"Reflect":            {},
	"RegExp":             {},
	"Request":            {},
	"Response":           {},
	"Set":                {},
	"SharedArrayBuffer":  {},
	"String":             {},
	"Symbol":             {},
	"Uint8Array":         {},
	"Uint8ClampedArray":  {},
	"Uint16Array":        {},
	"Uint32Array":        {},
	"URL":                {},
	"URLSearchParams":    {},
	"WeakMap":            {},
	"WeakRef":            {},
	"WeakSet":            {},
	"WebSocket":          {},
	"Window":             {},
	"Worker":             {},
	"XMLHttpRequest":     {},
	"console":            {},
	"document":           {},
	"globalThis":         {},
	"undefined":          {},
	"window":             {},
}
