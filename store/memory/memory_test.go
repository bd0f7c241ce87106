package memory_test

import (
	"testing"

	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
}
