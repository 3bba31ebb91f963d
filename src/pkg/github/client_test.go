package github

import "testing"

func TestNormalizeRepository(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "ssh shorthand", value: "git@github.com:org/repo.git", want: "org/repo"},
		{name: "ssh url", value: "ssh://git@github.com/org/repo.git", want: "org/repo"},
		{name: "https url", value: "https://github.com/org/repo", want: "org/repo"},
		{name: "https url with git suffix", value: "https://github.com/org/repo.git", want: "org/repo"},
		{name: "bare owner repo", value: "org/repo", want: "org/repo"},
		{name: "extra path segments trimmed", value: "https://github.com/org/repo/tree/main", want: "org/repo"},
		{name: "not a repository", value: "just-a-name", want: ""},
		{name: "empty", value: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRepository(tt.value); got != tt.want {
				t.Errorf("NormalizeRepository(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseOwnerRepo(t *testing.T) {
	owner, repo, err := ParseOwnerRepo("org/repo")
	if err != nil {
		t.Fatalf("ParseOwnerRepo() error = %v", err)
	}
	if owner != "org" || repo != "repo" {
		t.Errorf("ParseOwnerRepo() = %q/%q, want org/repo", owner, repo)
	}

	for _, invalid := range []string{"", "org", "org/repo/extra", "/repo", "org/"} {
		if _, _, err := ParseOwnerRepo(invalid); err == nil {
			t.Errorf("ParseOwnerRepo(%q) error = nil, want failure", invalid)
		}
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	if got := ResolveToken("fallback"); got != "fallback" {
		t.Errorf("ResolveToken() = %q, want configured fallback", got)
	}

	t.Setenv("GITHUB_TOKEN", "from-github")
	if got := ResolveToken("fallback"); got != "from-github" {
		t.Errorf("ResolveToken() = %q, want GITHUB_TOKEN", got)
	}

	t.Setenv("GH_TOKEN", "from-gh")
	if got := ResolveToken("fallback"); got != "from-gh" {
		t.Errorf("ResolveToken() = %q, want GH_TOKEN to win", got)
	}
}
