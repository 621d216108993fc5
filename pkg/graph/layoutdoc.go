package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Serialized Layout Document
// =============================================================================

// Layout is the serialization format for a computed layout: the graph
// structure plus one position per node. It is what `relmap layout` writes
// and `relmap render` reads, and what the preview server returns as JSON.
//
// Mode records which algorithm produced the positions ("tree" or "force").
// Diverged is set when a force run hit its iteration cap before settling;
// the positions are still the best-effort result.
type Layout struct {
	Mode      string     `json:"mode"`
	Diverged  bool       `json:"diverged,omitempty"`
	Nodes     []Node     `json:"nodes"`
	Edges     []Edge     `json:"edges,omitempty"`
	Positions []Position `json:"positions"`
}

// Position is a node's placed coordinate in a layout document.
type Position struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// Graph reconstructs the graph model embedded in the layout document.
func (l *Layout) Graph() (*Graph, error) {
	return fromRecords(l.Nodes, l.Edges)
}

// PositionMap returns the positions keyed by node ID.
func (l *Layout) PositionMap() map[int64]Position {
	m := make(map[int64]Position, len(l.Positions))
	for _, p := range l.Positions {
		m[p.ID] = p
	}
	return m
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that the mode is set and every node has a position.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.Mode == "" {
		return Layout{}, fmt.Errorf("layout must declare a mode")
	}
	placed := make(map[int64]bool, len(l.Positions))
	for _, p := range l.Positions {
		placed[p.ID] = true
	}
	for _, n := range l.Nodes {
		if !placed[n.ID] {
			return Layout{}, fmt.Errorf("layout missing position for node %d", n.ID)
		}
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
