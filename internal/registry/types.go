package registry

// EntityID uniquely identifies one declaration entity for the duration of a
// bundling run. IDs are assigned monotonically at registration time and are
// never reused or recycled.
type EntityID int

// InvalidEntity is returned by lookups that found no candidate.
const InvalidEntity EntityID = -1

// StatementHandle is an opaque reference to a parsed statement subtree. The
// handle is owned by the parser that produced it; the core never inspects,
// copies, or mutates it — it only passes it back to the renderer.
type StatementHandle any

// DeclarationKind classifies a declaration statement.
type DeclarationKind string

const (
	KindInterface DeclarationKind = "interface"
	KindTypeAlias DeclarationKind = "type_alias"
	KindClass     DeclarationKind = "class"
	KindEnum      DeclarationKind = "enum"
	KindModule    DeclarationKind = "module" // namespace or ambient module block
	KindFunction  DeclarationKind = "function"
	KindVariable  DeclarationKind = "variable"
)

// ExportKind classifies how a declaration leaves its owning module.
type ExportKind string

const (
	NotExported     ExportKind = "none"
	Named           ExportKind = "named"
	NamedAndDefault ExportKind = "named_and_default"
	Default         ExportKind = "default"
	DefaultOnly     ExportKind = "default_only"
	Equals          ExportKind = "equals"
)

// Binding records what a local spelling inside an entity's subtree resolved
// to: either another entity (Entity >= 0) or an external import.
type Binding struct {
	Entity EntityID
	Import *ExternalImport
}

// DeclarationEntity is one named declaration statement discovered in one
// module. Created once during collection; dependency fields are populated by
// the analyzer, NormalizedName is rewritten by the normalizer, Reachable is
// set by the shaker, and the generator only reads.
type DeclarationEntity struct {
	ID             EntityID
	Name           string // original spelling
	NormalizedName string // output spelling, mutated by the normalizer
	Module         string // owning module identifier
	Handle         StatementHandle
	Kind           DeclarationKind
	Export         ExportKind
	TypeOnly       bool // pure type declaration (interface, type alias)
	ForceInclude   bool // must ship regardless of reachability
	MergeGroup     string

	// GlobalAugmentation marks members of a `declare global` block; they
	// intentionally shadow ambient globals and are exempt from protection.
	GlobalAugmentation bool

	// Dependencies holds edges to other entities referenced from this
	// entity's subtree. Directed; cycles are legal.
	Dependencies map[EntityID]struct{}

	// ExternalUses maps an external module name to the set of imported
	// names this entity uses from it.
	ExternalUses map[string]map[string]struct{}

	// NamespaceUses holds namespace-import local names this entity
	// qualifies references through.
	NamespaceUses map[string]struct{}

	// Aliases maps a local alias spelling to its true origin name.
	Aliases map[string]string

	// Bindings maps every resolved local spelling to its target, for
	// rename-table construction during output generation.
	Bindings map[string]Binding

	Reachable bool

	order int // registration order, used as the final tie-break
}

// Order returns the discovery order assigned at registration.
func (e *DeclarationEntity) Order() int { return e.order }

// ImportShape describes the syntactic form of an external import binding.
type ImportShape string

const (
	ShapeNamed     ImportShape = "named"     // import { A } / import { A as B }
	ShapeDefault   ImportShape = "default"   // import X from "m"
	ShapeNamespace ImportShape = "namespace" // import * as X from "m"
	ShapeEquals    ImportShape = "equals"    // import X = require("m")
)

// ExternalImport is one distinct imported binding from one external module.
// Records merge on repeated sightings: later calls only add metadata.
type ExternalImport struct {
	Module         string
	Shape          ImportShape
	Name           string // imported name for ShapeNamed, "" otherwise
	LocalName      string // binding spelling in source
	NormalizedName string // output spelling, mutated by the normalizer
	TypeOnly       bool
	ValueUsage     bool
	ReferenceOnly  string // library tag; emit as a reference directive instead

	order int
}

// Order returns the registration order of the import record.
func (i *ExternalImport) Order() int { return i.order }

// ExportedName is one published name in a module's export surface.
type ExportedName struct {
	Name  string // published spelling
	Local string // local spelling (differs for `export { A as B }`)
	From  string // module specifier for re-exports, "" when local
}

// ExportSurface is the set of names, star re-exports, and namespace
// re-exports one module publishes. Only the entry module's transitively
// expanded surface defines the public root set.
type ExportSurface struct {
	Module     string
	Names      map[string]ExportedName
	Stars      []string          // module specifiers of `export * from`
	Namespaces map[string]string // published name -> module specifier
	Equals     string            // `export = X` local spelling, "" if absent
	Default    string            // `export default X` local spelling, "" if absent
}
