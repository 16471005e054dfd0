// Package store provides a message-driven state container on top of the
// reactive core.
//
// A Store owns exactly one root signal holding the application state. The
// only way to mutate it is Send, which runs a composed middleware chain
// whose innermost stage applies a pure reducer:
//
//	type counter struct{ Count int }
//
//	s := store.New(
//	    func(m counter, msg string) counter {
//	        switch msg {
//	        case "increment":
//	            m.Count++
//	        }
//	        return m
//	    },
//	    counter{},
//	)
//	s.Send("increment")
//	s.Get() // counter{Count: 1}
//
// Get is a tracked read: effects and memos that read a store re-run when
// its state changes.
//
// # Middleware
//
// A middleware wraps the send path:
//
//	func(get func() Model) func(next store.SendFunc[Msg]) store.SendFunc[Msg]
//
// Middlewares compose listed-order-outermost-first: for [A, B], a dispatch
// visits A's before-logic, then B's, then the reducer, then B's
// after-logic, then A's. A middleware that never calls next suppresses the
// message entirely; calling next multiple times replays it.
package store
