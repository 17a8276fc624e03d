package graph

// Metadata holds the descriptive fields of a bean definition.
type Metadata struct {
	Type              string   `json:"type"`
	Scope             string   `json:"scope"`
	Source            string   `json:"source"`
	DefinitionSource  string   `json:"definitionSource"`
	Categories        []string `json:"categories"`
	IsAdditionalBean  bool     `json:"isAdditionalBean"`
	IsThirdPartyBean  bool     `json:"isThirdPartyBean"`
	ThirdPartyPackage string   `json:"thirdPartyPackage,omitempty"`
}

// Node is one bean in the dependency graph. Layout positions are owned by
// the layout engine and are not part of the logical node.
type Node struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Metadata        Metadata `json:"metadata"`
	Dependencies    []string `json:"dependencies"`
	Dependents      []string `json:"dependents"`
	IsRoot          bool     `json:"isRoot"`
	HasDependencies bool     `json:"hasDependencies"`
	Missing         bool     `json:"missing"`
	DependentCount  int      `json:"dependentCount"`
}

// Edge means Source depends on Target. Endpoints reference nodes by id.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ChainSummary describes the subgraph reachable from one root and how it is
// referenced from outside that subgraph.
type ChainSummary struct {
	Root                      string `json:"root,omitempty"`
	NodeCount                 int    `json:"nodeCount"`
	LeafCount                 int    `json:"leafCount"`
	IsUnused                  bool   `json:"isUnused"`
	ExternalReferencerCount   int    `json:"externalReferencerCount"`
	ExternallyReferencedNodes int    `json:"externallyReferencedNodes"`
}

// UnusedChainInfo identifies a root whose whole subgraph is referenced by
// nothing outside it.
type UnusedChainInfo struct {
	Root      string `json:"root"`
	NodeCount int    `json:"nodeCount"`
	LeafCount int    `json:"leafCount"`
}

// PackageInfo is the canonical shape of a third-party package entry after
// boundary normalization.
type PackageInfo struct {
	ID        string `json:"id"`
	BeanCount int    `json:"beanCount"`
}

// Snapshot is the result of one provider query. It is immutable once
// decoded; every user action that changes the view produces a new Snapshot.
type Snapshot struct {
	Nodes              []*Node
	Edges              []Edge
	Roots              []string
	SelectedRoot       string
	ChainSummary       *ChainSummary
	IsUnusedChain      bool
	ThirdPartyPackages []PackageInfo

	index map[string]*Node
}

// NodeByID returns the node with the given id, or nil.
func (s *Snapshot) NodeByID(id string) *Node {
	return s.index[id]
}

// Contains reports whether the snapshot holds a node with the given id.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// NodeIDs returns node ids in snapshot iteration order. Search match order
// is defined by this order.
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}
