package pathmatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

// FileSet is a snapshot of repository file paths, relative to the root
// with forward slashes, indexed for exact and case-insensitive lookups.
type FileSet struct {
	Paths []string

	exact map[string]struct{}
	lower map[string]struct{}
}

// NewFileSet indexes the given paths. Backslashes are normalized so the
// same contract works on Windows checkouts.
func NewFileSet(paths []string) *FileSet {
	set := &FileSet{
		Paths: make([]string, 0, len(paths)),
		exact: make(map[string]struct{}, len(paths)),
		lower: make(map[string]struct{}, len(paths)),
	}
	for _, path := range paths {
		normalized := strings.ReplaceAll(path, "\\", "/")
		set.Paths = append(set.Paths, normalized)
		set.exact[normalized] = struct{}{}
		set.lower[strings.ToLower(normalized)] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds path exactly, or ignoring case
// when caseInsensitive is set.
func (s *FileSet) Contains(path string, caseInsensitive bool) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	if caseInsensitive {
		_, ok := s.lower[strings.ToLower(normalized)]
		return ok
	}
	_, ok := s.exact[normalized]
	return ok
}

// candidate is one pre-compiled path or alternative entry.
type candidate struct {
	literal string
	glob    glob.Glob
}

// FileMatcher evaluates a single required_files entry against a FileSet.
// Globs and the regex pattern are compiled once at construction, not per
// candidate path.
type FileMatcher struct {
	spec       models.RequiredFile
	candidates []candidate
	pattern    *regexp.Regexp
}

// NewFileMatcher compiles the spec's path, alternatives, and pattern.
func NewFileMatcher(spec models.RequiredFile) (*FileMatcher, error) {
	if spec.Path == "" && spec.Pattern == "" {
		return nil, fmt.Errorf("required_files entry must include path or pattern")
	}
	matcher := &FileMatcher{spec: spec}

	var entries []string
	if spec.Path != "" {
		entries = append(entries, spec.Path)
		entries = append(entries, spec.Alternatives...)
	}
	for _, entry := range entries {
		normalized := strings.ReplaceAll(entry, "\\", "/")
		if !looksLikeGlob(normalized) {
			matcher.candidates = append(matcher.candidates, candidate{literal: normalized})
			continue
		}
		pattern := normalized
		if spec.CaseInsensitive {
			pattern = strings.ToLower(pattern)
		}
		for _, variant := range globVariants(pattern) {
			compiled, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob %q: %w", entry, err)
			}
			matcher.candidates = append(matcher.candidates, candidate{glob: compiled})
		}
	}

	if spec.Pattern != "" {
		expr := anchor(spec.Pattern)
		if spec.CaseInsensitive {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", spec.Pattern, err)
		}
		matcher.pattern = compiled
	}

	return matcher, nil
}

// Matches reports whether any candidate or the pattern matches a file in
// the set. Candidates are tried in declaration order and the first match
// wins.
func (m *FileMatcher) Matches(files *FileSet) bool {
	for _, cand := range m.candidates {
		if cand.glob != nil {
			if matchGlob(cand.glob, files, m.spec.CaseInsensitive) {
				return true
			}
			continue
		}
		if files.Contains(cand.literal, m.spec.CaseInsensitive) {
			return true
		}
	}
	if m.pattern != nil {
		for _, path := range files.Paths {
			if m.pattern.MatchString(path) {
				return true
			}
		}
	}
	return false
}

func matchGlob(g glob.Glob, files *FileSet, caseInsensitive bool) bool {
	for _, path := range files.Paths {
		if caseInsensitive {
			path = strings.ToLower(path)
		}
		if g.Match(path) {
			return true
		}
	}
	return false
}

// MatchBranches returns the branches matching any of the patterns, in
// branch-list order. Branch names are flat strings, so globs compile
// without a separator and * crosses the whole name.
func MatchBranches(patterns, branches []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid branch glob %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	var matched []string
	for _, branch := range branches {
		for _, g := range compiled {
			if g.Match(branch) {
				matched = append(matched, branch)
				break
			}
		}
	}
	return matched, nil
}

// globVariants expands a pattern so that ** also spans zero directories:
// src/**/*.rs must match src/a.rs as well as src/a/b.rs. The compiled
// glob alone requires at least one directory between the separators.
func globVariants(pattern string) []string {
	variants := []string{pattern}
	collapsed := strings.ReplaceAll(pattern, "/**/", "/")
	collapsed = strings.TrimPrefix(collapsed, "**/")
	if collapsed != pattern {
		variants = append(variants, collapsed)
	}
	return variants
}

func looksLikeGlob(candidate string) bool {
	return strings.ContainsAny(candidate, "*?[{")
}

// anchor makes the regex match whole paths. Wrapping is harmless when the
// author already anchored the expression.
func anchor(pattern string) string {
	return "^(?:" + pattern + ")$"
}
