package domain

import "slices"

const (
	// WorkspaceProtocol prefixes dependency specs that point at another workspace member.
	WorkspaceProtocol = "workspace:"
	// WorkspaceAnyVersion is the range written when internal dependencies are unlinked.
	WorkspaceAnyVersion = WorkspaceProtocol + "*"
	// DefaultModuleVersion is assumed for members whose manifest has no version.
	DefaultModuleVersion = "0.0.1"
)

// DependencyKind classifies a workspace relation by the manifest section it was declared in.
type DependencyKind int

const (
	// DependencyDirect is a runtime dependency.
	DependencyDirect DependencyKind = iota
	// DependencyDev is a development-only dependency.
	DependencyDev
	// DependencyPeer is a peer dependency. Peers are tracked but never gate execution.
	DependencyPeer
)

// DependencyKinds lists every kind in manifest order.
var DependencyKinds = []DependencyKind{DependencyDirect, DependencyDev, DependencyPeer}

func (k DependencyKind) String() string {
	switch k {
	case DependencyDirect:
		return "direct"
	case DependencyDev:
		return "dev"
	case DependencyPeer:
		return "peer"
	default:
		return "unknown"
	}
}

// ManifestKey returns the package.json section holding relations of this kind.
func (k DependencyKind) ManifestKey() string {
	switch k {
	case DependencyDev:
		return "devDependencies"
	case DependencyPeer:
		return "peerDependencies"
	default:
		return "dependencies"
	}
}

// Module is one member of a workspace.
type Module struct {
	// Name is the unique identifier of the module within the workspace.
	Name InternedString
	// Location is the directory of the module.
	Location string
	// Version is the module's declared version.
	Version string
	// Requires holds the names that must complete before this module may run.
	// It is deduplicated, keeps first-seen order and never includes peer-only relations.
	Requires []InternedString

	Direct []InternedString
	Dev    []InternedString
	Peer   []InternedString

	// Manifest is the parsed package manifest, kept for rewriting.
	Manifest *Manifest
}

// NewModule creates a module with no relations.
func NewModule(name, location, version string) Module {
	if version == "" {
		version = DefaultModuleVersion
	}
	return Module{
		Name:     NewInternedString(name),
		Location: location,
		Version:  version,
	}
}

// AddRelation records a workspace relation of the given kind.
// Direct and dev relations also become requirements.
func (m *Module) AddRelation(kind DependencyKind, dep InternedString) {
	switch kind {
	case DependencyDirect:
		m.Direct = append(m.Direct, dep)
	case DependencyDev:
		m.Dev = append(m.Dev, dep)
	case DependencyPeer:
		m.Peer = append(m.Peer, dep)
		return
	}
	if !slices.Contains(m.Requires, dep) {
		m.Requires = append(m.Requires, dep)
	}
}

// Relations returns the relations of the given kind.
func (m *Module) Relations(kind DependencyKind) []InternedString {
	switch kind {
	case DependencyDirect:
		return m.Direct
	case DependencyDev:
		return m.Dev
	case DependencyPeer:
		return m.Peer
	default:
		return nil
	}
}
