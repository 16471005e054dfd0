package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gordonbrander/refrakt/pkg/fx"
	"github.com/gordonbrander/refrakt/pkg/store"
)

// counterModel is the demo application state.
type counterModel struct {
	Count   int  `json:"count"`
	Loading bool `json:"loading"`
}

// counterMsg drives the counter. Kind is one of increment, decrement,
// add, slow-increment, or reset.
type counterMsg struct {
	Kind  string `json:"kind"`
	Value int    `json:"value"`
}

func (m counterMsg) MsgType() string { return m.Kind }

func newCounterReducer(logger *slog.Logger) store.Reducer[counterModel, counterMsg] {
	return func(m counterModel, msg counterMsg) counterModel {
		switch msg.Kind {
		case "increment":
			m.Count++
		case "decrement":
			m.Count--
		case "add":
			m.Count += msg.Value
			m.Loading = false
		case "slow-increment":
			m.Loading = true
		case "reset":
			m = counterModel{}
		default:
			store.UnknownMessage(logger, msg)
		}
		return m
	}
}

// counterFx turns slow-increment into an add after a delay, simulating a
// backend round trip.
func counterFx(delay time.Duration) fx.EffectFn[counterModel, counterMsg] {
	return func(ctx context.Context, get func() counterModel, msg counterMsg, yield func(counterMsg)) error {
		if msg.Kind != "slow-increment" {
			return nil
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		yield(counterMsg{Kind: "add", Value: 1})
		return nil
	}
}
