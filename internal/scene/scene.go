package scene

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType identifies the kind of output node captured in a manifest.
type NodeType string

const (
	// NodeTypeRender is a Katana Render node.
	NodeTypeRender NodeType = "Render"
	// NodeTypeImageWrite is a Katana ImageWrite node.
	NodeTypeImageWrite NodeType = "ImageWrite"
)

// FrameRange is an inclusive start/end frame pair.
type FrameRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// IsZero reports whether the range was left unset.
func (r FrameRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// String renders the range the way job files expect it, e.g. "1-100".
func (r FrameRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r FrameRange) validate() error {
	if r.End < r.Start {
		return fmt.Errorf("end %d is before start %d", r.End, r.Start)
	}
	return nil
}

// Node describes one output node exported from a Katana scene. Dependencies
// name other nodes in the same manifest whose jobs must land on the farm
// first.
type Node struct {
	Name      string      `json:"name" yaml:"name"`
	Type      NodeType    `json:"type" yaml:"type"`
	Bypassed  bool        `json:"bypassed,omitempty" yaml:"bypassed,omitempty"`
	DependsOn []string    `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Outputs   []string    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	FarmRange *FrameRange `json:"farm_range,omitempty" yaml:"farm_range,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	clone := Node{
		Name:     n.Name,
		Type:     n.Type,
		Bypassed: n.Bypassed,
	}
	if len(n.DependsOn) > 0 {
		clone.DependsOn = cloneStringSlice(n.DependsOn)
	}
	if len(n.Outputs) > 0 {
		clone.Outputs = cloneStringSlice(n.Outputs)
	}
	if n.FarmRange != nil {
		rangeCopy := *n.FarmRange
		clone.FarmRange = &rangeCopy
	}
	return clone
}

func (n Node) normalized() Node {
	clone := n.Clone()
	clone.Name = strings.TrimSpace(clone.Name)
	clone.Type = normalizeType(string(clone.Type))
	for i := range clone.DependsOn {
		clone.DependsOn[i] = strings.TrimSpace(clone.DependsOn[i])
	}
	for i := range clone.Outputs {
		clone.Outputs[i] = strings.TrimSpace(clone.Outputs[i])
	}
	return clone
}

// Validate ensures the node entry is usable on its own. Cross-node checks
// (dependency references) live on Scene.Validate.
func (n Node) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("scene: node name is required")
	}
	switch n.Type {
	case NodeTypeRender, NodeTypeImageWrite:
	default:
		return fmt.Errorf("scene: node %s has unknown type %q", n.Name, n.Type)
	}
	deps := append([]string{}, n.DependsOn...)
	sort.Strings(deps)
	for i := 1; i < len(deps); i++ {
		if deps[i] == deps[i-1] {
			return fmt.Errorf("scene: node %s has duplicate dependency on %s", n.Name, deps[i])
		}
	}
	for _, dep := range n.DependsOn {
		if dep == n.Name {
			return fmt.Errorf("scene: node %s depends on itself", n.Name)
		}
	}
	if n.FarmRange != nil {
		if err := n.FarmRange.validate(); err != nil {
			return fmt.Errorf("scene: node %s farm range: %w", n.Name, err)
		}
	}
	return nil
}

// Scene is the manifest a Katana exporter writes next to the project: the
// saved scene path plus every output node the artist could submit.
type Scene struct {
	Version       int        `json:"version" yaml:"version"`
	SourceFile    string     `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	KatanaVersion int        `json:"katana_version,omitempty" yaml:"katana_version,omitempty"`
	FrameRange    FrameRange `json:"frame_range,omitempty" yaml:"frame_range,omitempty"`
	WorkingDir    string     `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`
	Nodes         []Node     `json:"nodes" yaml:"nodes"`
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	clone := Scene{
		Version:       s.Version,
		SourceFile:    s.SourceFile,
		KatanaVersion: s.KatanaVersion,
		FrameRange:    s.FrameRange,
		WorkingDir:    s.WorkingDir,
	}
	if len(s.Nodes) > 0 {
		clone.Nodes = make([]Node, len(s.Nodes))
		for i, node := range s.Nodes {
			clone.Nodes[i] = node.Clone()
		}
	}
	return clone
}

// Validate ensures the manifest is self-consistent. An empty source file is
// allowed here; submission preflight reports it as "scene not saved" instead.
func (s Scene) Validate() error {
	if s.Version < 1 {
		return fmt.Errorf("scene: version must be >= 1")
	}
	if !s.FrameRange.IsZero() {
		if err := s.FrameRange.validate(); err != nil {
			return fmt.Errorf("scene: frame range: %w", err)
		}
	}
	seen := map[string]struct{}{}
	for idx, node := range s.Nodes {
		if err := node.Validate(); err != nil {
			return fmt.Errorf("scene: node[%d]: %w", idx, err)
		}
		if _, exists := seen[node.Name]; exists {
			return fmt.Errorf("scene: duplicate node name %s", node.Name)
		}
		seen[node.Name] = struct{}{}
	}
	for _, node := range s.Nodes {
		for _, dep := range node.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("scene: node %s depends on unknown node %s", node.Name, dep)
			}
		}
	}
	return nil
}

// Normalized clones the scene, trims whitespace, canonicalizes node types,
// and validates the result.
func (s Scene) Normalized() (Scene, error) {
	clone := s.Clone()
	if clone.Version == 0 {
		clone.Version = 1
	}
	clone.SourceFile = strings.TrimSpace(clone.SourceFile)
	clone.WorkingDir = strings.TrimSpace(clone.WorkingDir)
	for i, node := range clone.Nodes {
		clone.Nodes[i] = node.normalized()
	}
	if err := clone.Validate(); err != nil {
		return Scene{}, err
	}
	return clone, nil
}

// Node returns the named node, if declared.
func (s Scene) Node(name string) (Node, bool) {
	for _, node := range s.Nodes {
		if node.Name == name {
			return node.Clone(), true
		}
	}
	return Node{}, false
}

// NodeNames returns every declared node name in declaration order.
func (s Scene) NodeNames() []string {
	names := make([]string, 0, len(s.Nodes))
	for _, node := range s.Nodes {
		names = append(names, node.Name)
	}
	return names
}

// OutputNodes returns the nodes eligible for submission in declaration
// order: Render nodes always, ImageWrite nodes only when requested, and
// bypassed nodes never.
func (s Scene) OutputNodes(includeImageWrite bool) []Node {
	var out []Node
	for _, node := range s.Nodes {
		if node.Bypassed {
			continue
		}
		if node.Type == NodeTypeImageWrite && !includeImageWrite {
			continue
		}
		out = append(out, node.Clone())
	}
	return out
}

// Dependencies returns the dependency list declared for a node.
func (s Scene) Dependencies(name string) []string {
	for _, node := range s.Nodes {
		if node.Name == name {
			return cloneStringSlice(node.DependsOn)
		}
	}
	return nil
}

func normalizeType(value string) NodeType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "render":
		return NodeTypeRender
	case "imagewrite", "image_write":
		return NodeTypeImageWrite
	default:
		return NodeType(strings.TrimSpace(value))
	}
}

func cloneStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clone := make([]string, len(values))
	copy(clone, values)
	return clone
}
