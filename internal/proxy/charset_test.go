package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCharset(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"header wins", "text/html; charset=Shift_JIS", `<meta charset="utf-8">`, "shift_jis"},
		{"meta charset", "text/html", `<head><meta charset="UTF-8"></head>`, "utf-8"},
		{"http-equiv", "", `<meta http-equiv="Content-Type" content="text/html; charset=EUC-JP">`, "euc-jp"},
		{"fallback", "text/html", "<html></html>", "euc-jp"},
		{"bad header", "text/html; charset", "<html></html>", "euc-jp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCharset(tt.contentType, []byte(tt.body), "EUC-JP"))
		})
	}
}

func TestToUTF8(t *testing.T) {
	// "馬" in EUC-JP
	out, cs, err := ToUTF8([]byte{0xc7, 0xcf}, "euc-jp", DefaultCharset)
	require.NoError(t, err)
	assert.Equal(t, "馬", string(out))
	assert.Equal(t, "euc-jp", cs)

	out, cs, err = ToUTF8([]byte("plain"), "utf8", DefaultCharset)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
	assert.Equal(t, "utf-8", cs)

	out, cs, err = ToUTF8([]byte{0xc7, 0xcf}, "x-unknown", "also-unknown")
	require.NoError(t, err)
	assert.Equal(t, "馬", string(out))
	assert.Equal(t, "euc-jp", cs)
}
