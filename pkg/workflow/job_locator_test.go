//go:build !integration

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionJobLocator(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "job using the scan action",
			text:   "jobs:\n  audit:\n    steps:\n      - uses: scanwf/security-scan-action@v2\n  github:\n    steps: []\n",
			want:   "audit",
			wantOK: true,
		},
		{
			name:   "falls back to a known job name",
			text:   "jobs:\n  gitlab:\n    runs-on: x\n  lint:\n    runs-on: x\n",
			want:   "gitlab",
			wantOK: true,
		},
		{
			name: "two scan jobs are ambiguous",
			text: "jobs:\n  a:\n    steps:\n      - uses: scanwf/security-scan-action@v2\n  b:\n    steps:\n      - uses: scanwf/security-scan-action@v1\n",
		},
		{
			name: "two known names are ambiguous",
			text: "jobs:\n  github:\n    runs-on: x\n  azure:\n    runs-on: x\n",
		},
		{
			name: "no jobs",
			text: "on: push\n",
		},
		{
			name: "unparsable",
			text: "jobs: {\n",
		},
		{
			name: "jobs is not a mapping",
			text: "jobs: [a, b]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ActionJobLocator{}.PreferredJobName(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanStep(t *testing.T) {
	job := mustParse(t, "steps:\n  - uses: actions/checkout@v4\n  - run: echo\n  - uses: scanwf/security-scan-action@main\n")
	idx, step, ok := ScanStep(job)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "uses:scanwf/security-scan-action@main", StepIdentity(step))

	_, _, ok = ScanStep(mustParse(t, "runs-on: x\n"))
	assert.False(t, ok)
}
