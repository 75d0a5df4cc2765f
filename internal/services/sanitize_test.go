package services

import "testing"

func TestSanitizeMessageContentKeepsAllowedTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello team", "hello team"},
		{"bold", "<b>deadline</b> moved", "<b>deadline</b> moved"},
		{"italic and emphasis", "<i>maybe</i> <em>sure</em>", "<i>maybe</i> <em>sure</em>"},
		{"strong and underline", "<strong>now</strong> <u>here</u>", "<strong>now</strong> <u>here</u>"},
		{"trims whitespace", "  hi  ", "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeMessageContent(tc.in); got != tc.want {
				t.Errorf("SanitizeMessageContent(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeMessageContentStripsDangerousMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"script tag", `before<script>alert("x")</script>after`, "beforeafter"},
		{"anchor tag", `<a href="https://evil.example">click</a>`, "click"},
		{"image tag", `<img src="x" onerror="alert(1)">hi`, "hi"},
		{"attributes on allowed tags", `<b onclick="steal()">ok</b>`, "<b>ok</b>"},
		{"nested disallowed", `<div><b>kept</b></div>`, "<b>kept</b>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeMessageContent(tc.in); got != tc.want {
				t.Errorf("SanitizeMessageContent(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeMessageContentIdempotent(t *testing.T) {
	in := `<b>bold</b> <script>x</script> plain`
	once := SanitizeMessageContent(in)
	twice := SanitizeMessageContent(once)
	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
}

func TestSanitizeMessageContentEmptyAfterStripping(t *testing.T) {
	// Script content is dropped entirely, leaving an empty message.
	if got := SanitizeMessageContent("<script>only</script>   "); got != "" {
		t.Errorf("script-only input should sanitize to empty, got %q", got)
	}
	if got := SanitizeMessageContent("   "); got != "" {
		t.Errorf("whitespace-only input should sanitize to empty, got %q", got)
	}
}
