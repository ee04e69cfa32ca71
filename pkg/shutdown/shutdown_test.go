package shutdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Shutdown(t *testing.T) {
	m := NewManager()
	var order []string
	m.OnShutdown("http", func() { order = append(order, "http") })
	m.OnShutdown("queue", func() { order = append(order, "queue") })
	m.OnShutdown("boom", func() { panic("hook failed") })

	assert.False(t, m.IsShuttingDown())
	assert.True(t, m.Shutdown())
	assert.True(t, m.IsShuttingDown())
	assert.False(t, m.Shutdown())

	// 逆序执行，panic 不影响后续
	assert.Equal(t, []string{"queue", "http"}, order)

	select {
	case <-m.Wait():
	default:
		t.Fatal("wait channel should be closed")
	}
}
