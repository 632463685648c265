package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	const name = "registry_test_store"
	Register(name, func(_ *slog.Logger) Adapter { return nil })
	t.Cleanup(func() {
		registryMu.Lock()
		delete(factories, name)
		registryMu.Unlock()
	})

	assert.True(t, IsRegistered(name))
	assert.Contains(t, ListAdapters(), name)

	factory, ok := Get(name)
	require.True(t, ok)
	assert.NotNil(t, factory)

	assert.Panics(t, func() {
		Register(name, func(_ *slog.Logger) Adapter { return nil })
	}, "a second registration under the same name panics")
	assert.Panics(t, func() { Register("registry_test_nil", nil) })
	assert.False(t, IsRegistered("registry_test_nil"))
}

func TestNewAdapter_Errors(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	assert.EqualError(t, err, "adapter type not specified")

	_, err = NewAdapter(Config{Type: "fake_store"}, nil)
	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "fake_store", unknown.Type)

	msg := unknown.Error()
	assert.Contains(t, msg, `"fake_store"`)
	assert.Contains(t, msg, "source.type in drugtree.yaml")
}
