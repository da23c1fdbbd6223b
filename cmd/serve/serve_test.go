package serve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, ":9090", Addr(9090, 8080))
	assert.Equal(t, ":8080", Addr(0, 8080))
}

func TestCommandMetadata(t *testing.T) {
	assert.Equal(t, "serve", Cmd.Use)
	assert.NotNil(t, Cmd.RunE)
	flag := Cmd.Flags().Lookup("port")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "p", flag.Shorthand)
	}
}
