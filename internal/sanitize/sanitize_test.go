package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeKeepsAllowedMarkup(t *testing.T) {
	in := `<p>hello <b>world</b> <i>and</i> <u>you</u></p><ul><li>one</li></ul>`
	got := Sanitize(in)
	for _, want := range []string{"<p>", "<b>world</b>", "<i>and</i>", "<u>you</u>", "<li>one</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %s", want, got)
		}
	}
}

func TestSanitizeUnwrapsDisallowed(t *testing.T) {
	got := Sanitize(`<section><span>inner <b>bold</b></span></section>`)
	if strings.Contains(got, "<section") || strings.Contains(got, "<span") {
		t.Fatalf("disallowed tag survived: %s", got)
	}
	if !strings.Contains(got, "inner <b>bold</b>") {
		t.Errorf("children not promoted: %s", got)
	}
}

func TestSanitizeDropsScriptContent(t *testing.T) {
	got := Sanitize(`before<script>alert("x")</script>after`)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Fatalf("script content leaked: %s", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("surrounding text lost: %s", got)
	}
}

func TestSanitizeLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		not  []string
	}{
		{
			name: "https kept with new-tab semantics",
			in:   `<a href="https://example.com/x" onclick="evil()">link</a>`,
			want: []string{`href="https://example.com/x"`, `target="_blank"`, `rel="noreferrer"`},
			not:  []string{"onclick"},
		},
		{
			name: "mailto kept",
			in:   `<a href="mailto:a@b.c">mail</a>`,
			want: []string{`href="mailto:a@b.c"`},
		},
		{
			name: "javascript dropped",
			in:   `<a href="javascript:alert(1)">x</a>`,
			want: []string{"<a>x</a>"},
			not:  []string{"href", "javascript"},
		},
		{
			name: "relative dropped",
			in:   `<a href="/local/path">x</a>`,
			not:  []string{"href"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in %s", want, got)
				}
			}
			for _, not := range tt.not {
				if strings.Contains(got, not) {
					t.Errorf("unexpected %q in %s", not, got)
				}
			}
		})
	}
}

func TestSanitizeStyleNormalization(t *testing.T) {
	got := Sanitize(`<span style="font-weight: bold; font-style: italic">x</span>`)
	if !strings.Contains(got, "<b><i>x</i></b>") {
		t.Errorf("expected nested b>i wrappers, got %s", got)
	}

	got = Sanitize(`<span style="text-decoration: underline">y</span>`)
	if !strings.Contains(got, "<u>y</u>") {
		t.Errorf("expected underline wrapper, got %s", got)
	}

	got = Sanitize(`<span style="font-weight: 700">z</span>`)
	if !strings.Contains(got, "<b>z</b>") {
		t.Errorf("expected bold wrapper for numeric weight, got %s", got)
	}
}

func TestSanitizeWhitespace(t *testing.T) {
	got := Sanitize("  <p>a\u200bb\u00a0\u00a0\u00a0c</p>  ")
	if strings.Contains(got, "\u200b") {
		t.Errorf("zero-width space survived: %q", got)
	}
	if !strings.Contains(got, "ab c") {
		t.Errorf("nbsp run not collapsed: %q", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Errorf("output not trimmed: %q", got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		`<p>hello <b>world</b></p>`,
		`<a href="https://example.com">x</a>`,
		`<blockquote><code>f(x)</code></blockquote>`,
		`plain text & entities <i>here</i>`,
		`<ul><li>a</li><li><u>b</u></li></ul>`,
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("not idempotent:\n in: %s\n 1x: %s\n 2x: %s", in, once, twice)
		}
	}
}

func TestSanitizeNeverEmitsForbidden(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script>`,
		`<iframe src="https://evil.test"></iframe>`,
		`<img src=x onerror=alert(1)>`,
		`<b onmouseover="evil()">hi</b>`,
		`<<script>script>nested<</script>/script>`,
		`<p style="font-weight:bold" class="x">styled</p>`,
	}
	for _, in := range inputs {
		got := Sanitize(in)
		for _, forbidden := range []string{"<script", "<iframe", "onerror=", "onmouseover=", "<img", "class="} {
			if strings.Contains(got, forbidden) {
				t.Errorf("forbidden %q in output %q for input %q", forbidden, got, in)
			}
		}
	}
}

func TestSanitizeMalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"<b><i>unclosed",
		"</div></div>",
		"<a href=>empty</a>",
		"<p <p <p",
		strings.Repeat("<div>", 200),
		"\x00\x01<b>\xff</b>",
	}
	for _, in := range inputs {
		_ = Sanitize(in) // must not panic
		_ = PlainText(in)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>hey <b>@ada</b>\u200b check</p>")
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Errorf("tags in plain text: %q", got)
	}

	got = PlainText("a\u200bb")
	if got != "ab" {
		t.Errorf("zero-width not stripped: %q", got)
	}

	if got := PlainText(Sanitize("x\u200by<b>z</b>")); strings.Contains(got, "\u200b") {
		t.Errorf("zero-width survived sanitize+plaintext: %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags(`<b>bold</b> and <a href="x">link</a>`); got != "bold and link" {
		t.Errorf("StripTags = %q", got)
	}
}
