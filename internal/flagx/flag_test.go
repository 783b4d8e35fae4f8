package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-s", "http://svc:5002", "-t", "30"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s", "http://svc:5002"},
		},
		{
			name:         "equals form",
			args:         []string{"--config=study.json", "-s", "http://svc"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=study.json"},
		},
		{
			name:         "order preserved across forms",
			args:         []string{"-t=45", "-u", "alice", "-x", "1"},
			allowedFlags: []string{"-t", "-u"},
			want:         []string{"-t=45", "-u", "alice"},
		},
		{
			name:         "unknown flags and positionals dropped",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag at end without value",
			args:         []string{"-d"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
		{
			name:         "next flag is not consumed as value",
			args:         []string{"-d", "-u", "bob"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"gophstudy", "-s", "http://svc", "-c", "study.json"}
	assert.Equal(t, "study.json", JsonConfigFlags())

	os.Args = []string{"gophstudy", "-config=alt.json"}
	assert.Equal(t, "alt.json", JsonConfigFlags())

	os.Args = []string{"gophstudy", "-s", "http://svc"}
	assert.Equal(t, "", JsonConfigFlags())
}
