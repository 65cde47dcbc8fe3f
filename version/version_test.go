package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSDKVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	tests := []struct {
		version string
		want    string
	}{
		{"dev", DefaultSDKVersion},
		{"v0.7.1", "0.7.1"},
		{"1.2.3-rc.1", "1.2.3-rc.1"},
		{"", DefaultSDKVersion},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.want, SDKVersion())
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "dev", CommitHash: "abc", BuildTime: "now"}
	assert.Equal(t, "typegen dev (commit abc, built now)", info.String())

	info.Version = "0.6.2"
	assert.Equal(t, "typegen 0.6.2 (commit abc, built now)", info.String())
}
