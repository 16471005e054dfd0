// Package scope derives child stores from parent stores.
//
// A scoped store's state is a memoized projection of the parent's state,
// and its outgoing messages are tagged and forwarded into the parent's
// send. Scoping is a pure routing transform: it never buffers, batches,
// or filters messages.
//
//	child := scope.From[appModel, appMsg, int, counterMsg](
//	    parent,
//	    func(m appModel) int { return m.Counter },
//	    func(msg counterMsg) appMsg { return appMsg{Counter: &msg} },
//	)
//
// Scopes chain: a scope of a scope is just another projection plus
// another tagging function. Rather than sitting inside the parent's
// middleware pipeline, a scope wraps the parent's store.Accessor surface
// from the outside; the observable contract is the same.
package scope
