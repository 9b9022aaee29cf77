package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		args    []string
		want    []string
		notWant string
	}{
		{
			name:    "default build",
			version: "dev",
			args:    []string{"version"},
			want:    []string{"sercha version dev\n"},
			notWant: "runtime ",
		},
		{
			name:    "release version",
			version: "1.4.0",
			args:    []string{"version"},
			want:    []string{"sercha version 1.4.0\n"},
			notWant: "runtime ",
		},
		{
			name:    "verbose adds runtime",
			version: "1.4.0",
			args:    []string{"version", "--verbose"},
			want: []string{
				"sercha version 1.4.0\n",
				"runtime " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + "\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetState()
			t.Cleanup(resetState)
			original := version
			SetVersion(tt.version)
			t.Cleanup(func() { version = original })

			out, err := execute(t, tt.args...)

			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	resetState()
	t.Cleanup(resetState)

	_, err := execute(t, "version", "extra")

	assert.Error(t, err)
}

func TestVersionCmd_DoesNotBootstrap(t *testing.T) {
	boot := &fakeBootstrap{}
	resetState()
	t.Cleanup(resetState)
	SetBootstrap(boot)

	_, err := execute(t, "version")

	require.NoError(t, err)
	assert.Zero(t, boot.servicesCalls)
}
