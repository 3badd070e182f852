// Package store implements core.Store.
//
//	var s core.Store = store.NewMemoryStore()
//	var s core.Store, err = store.NewRedisStore(ctx, store.RedisOptions{Addr: "localhost:6379"})
package store

import "github.com/AbdelrahmanSuliman/Graduation-Project/core"

// ErrNotFound is returned for a missing or expired key.
var ErrNotFound = core.ErrStoreNotFound
