package loadgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomOrder(t *testing.T) {
	g := New(nil, Config{})

	for i := 0; i < 100; i++ {
		userID, name := g.randomOrder()
		assert.GreaterOrEqual(t, userID, int64(1))
		assert.LessOrEqual(t, userID, int64(10000))

		parts := strings.SplitN(name, " ", 2)
		assert.Len(t, parts, 2)
		assert.Contains(t, firstNames, parts[0])
		assert.Contains(t, lastNames, parts[1])
	}
}

func TestConfigDefaults(t *testing.T) {
	g := New(nil, Config{})
	assert.Equal(t, "orders", g.cfg.Table)
	assert.NotZero(t, g.cfg.Interval)
}
