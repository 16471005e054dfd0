package store

import "log/slog"

// Logger returns a middleware that logs every dispatched message and the
// resulting state transition through the given logger.
//
// Placed first in the middleware list it observes every external Send;
// placed after an fx middleware it also observes effect-yielded messages.
func Logger[Model, Msg any](logger *slog.Logger) Middleware[Model, Msg] {
	return func(get func() Model) func(next SendFunc[Msg]) SendFunc[Msg] {
		return func(next SendFunc[Msg]) SendFunc[Msg] {
			return func(msg Msg) {
				logger.Debug("dispatch", "msg", MsgType(msg))
				next(msg)
				logger.Debug("dispatched", "msg", MsgType(msg), "state", get())
			}
		}
	}
}

// UnknownMessage logs the single warning a reducer's default branch emits
// for a message variant it does not handle. State is returned unchanged by
// the caller; unknown messages never corrupt state.
func UnknownMessage(logger *slog.Logger, msg any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("unknown message", "msg", MsgType(msg))
}
