package middleware

import "github.com/aretw0/storyboard/pkg/ports"

// Middleware allows wrapping a KVStore to add behavior.
type Middleware func(ports.KVStore) ports.KVStore

// Chain applies middlewares so that the first one is outermost.
func Chain(store ports.KVStore, mws ...Middleware) ports.KVStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
