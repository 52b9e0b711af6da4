package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_SwapsSingleton(t *testing.T) {
	before := current()
	Initialize(true)
	after := current()
	assert.NotSame(t, before, after)
}

func TestHelpersDoNotPanic(t *testing.T) {
	Initialize(false)
	assert.NotPanics(t, func() {
		Debugf("debug %s", "x")
		Infof("info %s", "x")
		Warnf("warn %s", "x")
		Errorf("error %s", "x")
		With("key", "value").Infof("with fields")
		_ = Sync()
	})
}
