package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText_StripsMarkup(t *testing.T) {
	cases := map[string]string{
		"通常のテキスト":                     "通常のテキスト",
		"<b>太字</b>テキスト":               "太字テキスト",
		"Hello <script>alert('xss')</script>World": "Hello World",
		`<img src=x onerror="alert(1)">画像`: "画像",
		"<!-- comment -->本文":            "本文",
		"<style>p{color:red}</style>本文":  "本文",
		"a < b":                         "a < b",
		"&lt;b&gt;そのまま":                "&lt;b&gt;そのまま",
	}
	for in, want := range cases {
		require.Equal(t, want, Text(in), "input %q", in)
	}
}

func TestText_IsFixedPoint(t *testing.T) {
	inputs := []string{
		"<<b>b>x",
		"<scr<script>ipt>alert(1)</script>",
		"<textarea><b>x</b></textarea>",
		"a<",
		strings.Repeat("<i>", 20) + "深い" + strings.Repeat("</i>", 20),
	}
	for _, in := range inputs {
		once := Text(in)
		require.Equal(t, once, Text(once), "input %q", in)
		require.NotContains(t, once, "<b>")
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	require.Equal(t, strings.Repeat("あ", 20), Truncate(strings.Repeat("あ", 30), 20))
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "", Truncate("abc", 0))
}

func TestField_ClampAfterStrip(t *testing.T) {
	in := "<b>" + strings.Repeat("x", 25) + "</b>"
	out := Field(in, 20)
	require.Equal(t, strings.Repeat("x", 20), out)
	require.Equal(t, out, Field(out, 20))
}
