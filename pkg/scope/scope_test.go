package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gordonbrander/refrakt/pkg/reactive"
	"github.com/gordonbrander/refrakt/pkg/scope"
	"github.com/gordonbrander/refrakt/pkg/store"
)

type appModel struct {
	Counter int
	Name    string
}

type counterMsg struct {
	Kind  string
	Value int
}

type appMsg struct {
	Kind    string
	Name    string
	Counter *counterMsg
}

func appReducer(m appModel, msg appMsg) appModel {
	switch {
	case msg.Counter != nil:
		switch msg.Counter.Kind {
		case "increment":
			m.Counter++
		case "set":
			m.Counter = msg.Counter.Value
		}
	case msg.Kind == "rename":
		m.Name = msg.Name
	}
	return m
}

func newChild(parent *store.Store[appModel, appMsg]) *scope.Store[int, counterMsg] {
	return scope.From[appModel, appMsg, int, counterMsg](
		parent,
		func(m appModel) int { return m.Counter },
		func(msg counterMsg) appMsg { return appMsg{Counter: &msg} },
	)
}

func TestScopedGetProjectsParentState(t *testing.T) {
	parent := store.New(appReducer, appModel{Counter: 3, Name: "x"})
	child := newChild(parent)

	assert.Equal(t, 3, child.Get())
}

func TestScopedSendTagsAndForwards(t *testing.T) {
	parent := store.New(appReducer, appModel{})
	child := newChild(parent)

	child.Send(counterMsg{Kind: "increment"})
	child.Send(counterMsg{Kind: "increment"})

	assert.Equal(t, 2, parent.Get().Counter)
	assert.Equal(t, 2, child.Get())
}

// Unrelated parent updates leave the child's value equal by value.
func TestScopedReferentialIsolation(t *testing.T) {
	parent := store.New(appReducer, appModel{Counter: 0, Name: "x"})
	child := newChild(parent)

	before := child.Get()
	parent.Send(appMsg{Kind: "rename", Name: "y"})
	after := child.Get()

	assert.Equal(t, before, after)
	assert.Equal(t, "y", parent.Get().Name)
}

func TestScopedStoreIsReactive(t *testing.T) {
	sched := reactive.NewScheduler()
	parent := store.New(appReducer, appModel{})
	child := newChild(parent)

	observed := make(chan int, 16)
	unsub := sched.Effect(func() reactive.Cleanup {
		observed <- child.Get()
		return nil
	})
	defer unsub()

	assert.Equal(t, 0, <-observed)

	parent.Send(appMsg{Counter: &counterMsg{Kind: "set", Value: 9}})
	sched.Settle()

	assert.Equal(t, 9, <-observed)
}

func TestScopesChain(t *testing.T) {
	type pair struct {
		Left  int
		Right int
	}
	type pairMsg struct {
		Kind  string
		Value pair
	}
	type leftMsg struct {
		Value int
	}

	parent := store.New(func(m pair, msg pairMsg) pair {
		if msg.Kind == "set" {
			return msg.Value
		}
		return m
	}, pair{Left: 1, Right: 2})

	// First scope narrows to the pair, second to its left element.
	mid := scope.From[pair, pairMsg, pair, pairMsg](
		parent,
		func(m pair) pair { return m },
		func(msg pairMsg) pairMsg { return msg },
	)
	leaf := scope.From[pair, pairMsg, int, leftMsg](
		mid,
		func(m pair) int { return m.Left },
		func(msg leftMsg) pairMsg {
			return pairMsg{Kind: "set", Value: pair{Left: msg.Value, Right: mid.Peek().Right}}
		},
	)

	assert.Equal(t, 1, leaf.Get())

	leaf.Send(leftMsg{Value: 42})
	assert.Equal(t, 42, leaf.Get())
	assert.Equal(t, pair{Left: 42, Right: 2}, parent.Get())
}
