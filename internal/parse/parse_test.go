package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	tests := []struct {
		in   string
		argv []string
		bg   bool
	}{
		{"", nil, false},
		{"   \n", nil, false},
		{"/bin/echo hello\n", []string{"/bin/echo", "hello"}, false},
		{"sleep 5 &\n", []string{"sleep", "5"}, true},
		{"  jobs  ", []string{"jobs"}, false},
		{"/bin/echo 'tsh> quoted arg' &", []string{"/bin/echo", "tsh> quoted arg"}, true},
		{"fg %2", []string{"fg", "%2"}, false},
		{"&", []string{}, true},
		{`/bin/echo -e tsh\076 ./myspin 1 \046`, []string{"/bin/echo", "-e", `tsh\076`, "./myspin", "1", `\046`}, false},
		{`/bin/echo "a b"`, []string{"/bin/echo", `"a`, `b"`}, false},
		{`/bin/echo 'a\b "c"' d\`, []string{"/bin/echo", `a\b "c"`, `d\`}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			argv, bg, err := Line(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.bg, bg)
			if len(tt.argv) == 0 {
				assert.Empty(t, argv)
			} else {
				assert.Equal(t, tt.argv, argv)
			}
		})
	}
}

func TestLineUnterminatedQuote(t *testing.T) {
	_, _, err := Line("echo 'oops")
	assert.Error(t, err)
}
