package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Document errors.
var (
	ErrDuplicateNode = errors.New("duplicate node name")
	ErrUnknownNode   = errors.New("unknown node")
)

// Document is the serializable form of a Scene. Nodes are listed flat with
// parents before children; links are by name.
type Document struct {
	Properties mod3.PropertyMap `yaml:"properties"`
	Nodes      []NodeDocument   `yaml:"nodes"`
	Meshes     []*Mesh          `yaml:"meshes"`
}

// NodeDocument is one node of a Document.
type NodeDocument struct {
	Name        string               `yaml:"name"`
	Kind        string               `yaml:"kind"`
	Parent      string               `yaml:"parent,omitempty"`
	Matrix      mgl32.Mat4           `yaml:"matrix,flow"`
	Properties  mod3.PropertyMap     `yaml:"properties"`
	Constraints []ConstraintDocument `yaml:"constraints,omitempty"`
}

// ConstraintDocument is one constraint of a NodeDocument. An empty target
// points at the owning node.
type ConstraintDocument struct {
	Kind   string `yaml:"kind"`
	Target string `yaml:"target,omitempty"`
	Active bool   `yaml:"active"`
}

// Document converts the scene to its serializable form.
func (s *Scene) Document() Document {
	doc := Document{Properties: s.Properties, Meshes: s.Meshes}
	for _, n := range s.Objects() {
		nd := NodeDocument{
			Name:       n.Name,
			Kind:       n.Kind.String(),
			Matrix:     n.Matrix,
			Properties: n.Properties,
		}
		if n.Parent != nil {
			nd.Parent = n.Parent.Name
		}
		for _, c := range n.Constraints {
			cd := ConstraintDocument{Kind: string(c.Kind), Active: c.Active}
			if c.Target != nil {
				cd.Target = c.Target.Name
			}
			nd.Constraints = append(nd.Constraints, cd)
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	return doc
}

// Scene rebuilds the node graph. World matrices are recomputed.
func (d *Document) Scene() (*Scene, error) {
	s := &Scene{Properties: d.Properties, Meshes: d.Meshes}
	byName := make(map[string]*Node, len(d.Nodes))

	for _, nd := range d.Nodes {
		if _, dup := byName[nd.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, nd.Name)
		}
		kind, err := ParseNodeKind(nd.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", nd.Name, err)
		}
		n := NewNode(nd.Name, kind)
		if nd.Matrix != (mgl32.Mat4{}) {
			n.Matrix = nd.Matrix
		}
		n.Properties = nd.Properties
		byName[nd.Name] = n

		if nd.Parent == "" {
			s.Nodes = append(s.Nodes, n)
			continue
		}
		parent, ok := byName[nd.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrUnknownNode, nd.Parent, nd.Name)
		}
		parent.AddChild(n)
	}

	// Constraint targets may point forward, so they resolve once every node exists.
	for _, nd := range d.Nodes {
		n := byName[nd.Name]
		for _, cd := range nd.Constraints {
			c := Constraint{Kind: ConstraintKind(cd.Kind), Active: cd.Active}
			if cd.Target != "" {
				target, ok := byName[cd.Target]
				if !ok {
					return nil, fmt.Errorf("%w: constraint target %s of %s", ErrUnknownNode, cd.Target, nd.Name)
				}
				c.Target = target
			}
			n.Constraints = append(n.Constraints, c)
		}
	}

	for _, n := range s.Objects() {
		n.World = n.WorldMatrix()
	}
	return s, nil
}

// Load reads a YAML scene document.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return doc.Scene()
}

// Save writes the scene as a YAML document.
func (s *Scene) Save(path string) error {
	data, err := yaml.Marshal(s.Document())
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
