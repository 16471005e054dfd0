// Package persist snapshots store state to durable storage.
//
// A Snapshotter reads and writes opaque snapshot bytes. The package ships
// an in-memory snapshotter for tests and an S3-backed one for deployment.
//
// Saver is the store-facing half: its middleware serializes the model
// after every dispatch and hands it to a background writer. Writes are
// coalesced, only the most recent snapshot is pending at any time, so a
// burst of dispatches costs one write. Snapshot failures are logged and
// never surface into the dispatch path.
//
//	snap := persist.NewMemorySnapshotter()
//	saver := persist.NewSaver[model, msg](snap)
//	defer saver.Close()
//
//	initial, _ := persist.Load(ctx, snap, model{})
//	s := store.New(reducer, initial, store.WithMiddleware(saver.Middleware()))
package persist
