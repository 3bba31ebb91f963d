package pathmatch

import (
	"reflect"
	"testing"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

func TestFileMatcherGlobs(t *testing.T) {
	files := NewFileSet([]string{
		"src/a.rs",
		"src/a/b.rs",
		"srcx/a.rs",
		"docs/readme.md",
	})

	tests := []struct {
		name string
		spec models.RequiredFile
		want bool
	}{
		{
			name: "double star crosses directories",
			spec: models.RequiredFile{Path: "src/**/*.rs"},
			want: true,
		},
		{
			name: "double star matches direct child",
			spec: models.RequiredFile{Path: "src/**.rs"},
			want: true,
		},
		{
			name: "single star stays within one segment",
			spec: models.RequiredFile{Path: "src/*.md"},
			want: false,
		},
		{
			name: "glob does not bleed into sibling directory",
			spec: models.RequiredFile{Path: "srcy/**/*.rs"},
			want: false,
		},
		{
			name: "literal path",
			spec: models.RequiredFile{Path: "docs/readme.md"},
			want: true,
		},
		{
			name: "literal path is exact by default",
			spec: models.RequiredFile{Path: "docs/README.md"},
			want: false,
		},
		{
			name: "case insensitive literal",
			spec: models.RequiredFile{Path: "docs/README.md", CaseInsensitive: true},
			want: true,
		},
		{
			name: "case insensitive glob",
			spec: models.RequiredFile{Path: "DOCS/*.MD", CaseInsensitive: true},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := NewFileMatcher(tt.spec)
			if err != nil {
				t.Fatalf("NewFileMatcher() error = %v", err)
			}
			if got := matcher.Matches(files); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileMatcherDoubleStarSpansZeroDirectories(t *testing.T) {
	matcher, err := NewFileMatcher(models.RequiredFile{Path: "src/**/*.rs"})
	if err != nil {
		t.Fatalf("NewFileMatcher() error = %v", err)
	}

	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{name: "nested file", files: []string{"src/a/b.rs"}, want: true},
		{name: "direct child", files: []string{"src/a.rs"}, want: true},
		{name: "sibling directory", files: []string{"srcx/a.rs"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matcher.Matches(NewFileSet(tt.files)); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.files, got, tt.want)
			}
		})
	}
}

func TestFileMatcherAlternatives(t *testing.T) {
	files := NewFileSet([]string{"COPYING"})

	matcher, err := NewFileMatcher(models.RequiredFile{
		Path:         "LICENSE",
		Alternatives: []string{"LICENSE.md", "COPYING"},
	})
	if err != nil {
		t.Fatalf("NewFileMatcher() error = %v", err)
	}
	if !matcher.Matches(files) {
		t.Errorf("Matches() = false, want true via alternative")
	}
}

func TestFileMatcherPattern(t *testing.T) {
	files := NewFileSet([]string{"docs/adr/0001-record.md", "notes.txt"})

	tests := []struct {
		name string
		spec models.RequiredFile
		want bool
	}{
		{
			name: "regex matches full path",
			spec: models.RequiredFile{Pattern: `docs/adr/\d{4}-.*\.md`},
			want: true,
		},
		{
			name: "regex is anchored, no substring match",
			spec: models.RequiredFile{Pattern: `adr/\d{4}`},
			want: false,
		},
		{
			name: "author anchors are harmless",
			spec: models.RequiredFile{Pattern: `^notes\.txt$`},
			want: true,
		},
		{
			name: "case insensitive pattern",
			spec: models.RequiredFile{Pattern: `NOTES\.TXT`, CaseInsensitive: true},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := NewFileMatcher(tt.spec)
			if err != nil {
				t.Fatalf("NewFileMatcher() error = %v", err)
			}
			if got := matcher.Matches(files); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileMatcherRejectsEmptySpec(t *testing.T) {
	if _, err := NewFileMatcher(models.RequiredFile{}); err == nil {
		t.Errorf("NewFileMatcher() error = nil, want error for empty spec")
	}
}

func TestMatchBranches(t *testing.T) {
	branches := []string{"main", "develop", "release/1.0", "release/2.0", "feature/x"}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "literal",
			patterns: []string{"main"},
			want:     []string{"main"},
		},
		{
			name:     "star crosses slashes in branch names",
			patterns: []string{"release/*"},
			want:     []string{"release/1.0", "release/2.0"},
		},
		{
			name:     "results follow branch list order",
			patterns: []string{"release/*", "main"},
			want:     []string{"main", "release/1.0", "release/2.0"},
		},
		{
			name:     "branch matched once despite overlapping globs",
			patterns: []string{"main", "m*"},
			want:     []string{"main"},
		},
		{
			name:     "no patterns",
			patterns: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchBranches(tt.patterns, branches)
			if err != nil {
				t.Fatalf("MatchBranches() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchBranches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileSetContains(t *testing.T) {
	files := NewFileSet([]string{`docs\guide.md`})

	if !files.Contains("docs/guide.md", false) {
		t.Errorf("Contains() = false, want true after separator normalization")
	}
	if !files.Contains("DOCS/GUIDE.MD", true) {
		t.Errorf("Contains() = false, want true with case folding")
	}
	if files.Contains("DOCS/GUIDE.MD", false) {
		t.Errorf("Contains() = true, want false without case folding")
	}
}
