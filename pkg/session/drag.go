package session

import (
	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/layout"
)

// =============================================================================
// Drag Interaction
// =============================================================================

// DragStart begins a drag on the given node. The node is pinned for the
// duration of the drag (and stays pinned afterwards until Unpin), and its
// pre-drag position is recorded so CancelDrag can restore it.
//
// Starting a drag while another is active implicitly ends the previous one.
func (s *Session) DragStart(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.state.Position(id)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "cannot drag node %d: not in the layout", id)
	}

	s.dragging = id
	s.preDrag[id] = p
	s.state.Pin(id)
	return nil
}

// DragMove places the dragged node exactly at p. The position is authoritative
// for the next simulation step; in force mode the rest of the layout keeps
// reacting around it, so connected edges follow live.
func (s *Session) DragMove(id int64, p layout.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragging != id {
		return errors.New(errors.ErrCodeInvalidInput, "no active drag on node %d", id)
	}

	s.state.SetPosition(id, p)
	s.converged = false
	return nil
}

// DragEnd finishes the drag. The node remains pinned at its final position;
// release it with Unpin to hand it back to automatic layout.
func (s *Session) DragEnd(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragging != id {
		return errors.New(errors.ErrCodeInvalidInput, "no active drag on node %d", id)
	}

	s.dragging = 0
	delete(s.preDrag, id)
	return nil
}

// CancelDrag aborts the active drag, restoring the node to its pre-drag
// position and unpinning it. A no-op when no drag is active.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragging == 0 {
		return
	}
	id := s.dragging
	if p, ok := s.preDrag[id]; ok {
		s.state.SetPosition(id, p)
	}
	s.state.Unpin(id)
	delete(s.preDrag, id)
	s.dragging = 0
	s.converged = false
}

// Dragging returns the ID of the node under an active drag, or 0.
func (s *Session) Dragging() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}
