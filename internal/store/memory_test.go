package store_test

import (
	"testing"

	"github.com/citymemory/backend/internal/store"
	"github.com/citymemory/backend/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})
}
