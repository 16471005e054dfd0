package scope

import (
	"github.com/gordonbrander/refrakt/pkg/reactive"
	"github.com/gordonbrander/refrakt/pkg/store"
)

// Store is a derived store whose root "cell" is a memo over the parent's
// state. It holds no subscriptions of its own: its lifetime is bounded by
// the parent's, and there is nothing to tear down.
type Store[Model, Msg any] struct {
	state *reactive.Memo[Model]
	send  store.SendFunc[Msg]
}

// From derives a child store from a parent.
//
// project maps the parent state to the child state; it is re-evaluated
// only when the parent state it reads changes. tag wraps a child message
// into a parent message before forwarding.
func From[ParentModel, ParentMsg, Model, Msg any](
	parent store.Accessor[ParentModel, ParentMsg],
	project func(ParentModel) Model,
	tag func(Msg) ParentMsg,
) *Store[Model, Msg] {
	return &Store[Model, Msg]{
		state: reactive.NewMemo(func() Model {
			return project(parent.Get())
		}),
		send: func(msg Msg) {
			parent.Send(tag(msg))
		},
	}
}

// Get returns the projected child state as a tracked read: reactions that
// read a scoped store re-run when the parent's relevant state changes.
func (s *Store[Model, Msg]) Get() Model {
	return s.state.Get()
}

// Peek returns the projected child state without creating a dependency.
func (s *Store[Model, Msg]) Peek() Model {
	return s.state.Peek()
}

// Send tags the child message and forwards it into the parent's pipeline.
func (s *Store[Model, Msg]) Send(msg Msg) {
	s.send(msg)
}

var _ store.Accessor[int, string] = (*Store[int, string])(nil)
