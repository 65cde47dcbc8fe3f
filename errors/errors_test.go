package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	wrapped := Wrap(ErrCoreNotFound, "../nodetool-core/src")

	require.NotNil(t, wrapped)
	assert.Contains(t, wrapped.Error(), "core package not found")
	assert.Contains(t, wrapped.Error(), "../nodetool-core/src")
	assert.True(t, Is(wrapped, ErrCoreNotFound))
}

func TestWithHintIsFlattened(t *testing.T) {
	err := WithHint(Wrap(ErrCoreNotFound, "missing"), "pass --core")

	assert.Equal(t, "pass --core", FlattenHints(err))
	assert.True(t, Is(err, ErrCoreNotFound))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"core missing", Wrapf(ErrCoreNotFound, "path %s", "x"), true},
		{"bad manifest", Wrap(ErrInvalidManifest, "x.typegen.toml"), false},
		{"plain", New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"manifest", Wrap(ErrInvalidManifest, "decode"), true},
		{"incompatible", Wrap(ErrIncompatiblePackage, "sdk"), true},
		{"registry", Wrap(ErrRegistryUnavailable, "read"), true},
		{"metadata", Wrap(ErrMetadataUnavailable, "node"), true},
		{"fatal", ErrCoreNotFound, false},
		{"unrelated", New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recoverable(tt.err))
		})
	}
}
