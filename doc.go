// Package journal is the composition root of the learning journal.
//
// It connects the core domain (entries, validation policy, the store
// contract) with the storage adapters using the same hexagonal layout as the
// rest of the module.
//
// Every reflection is appended to a single store. The default store is a
// JSON document holding an array of entries, rewritten atomically on each
// append and guarded by a lock file so a CLI and a server may write to it at
// the same time. URIs ending in .db select the SQLite store instead.
//
// Usage:
//
//	svc, err := journal.New("./data/reflections.json",
//		journal.WithOrder(core.NewestFirst),
//		journal.WithLogger(logger),
//	)
//
//	entry, err := svc.SubmitEntry(ctx, journal.Input{Text: "Today I learned about channels."})
package journal
