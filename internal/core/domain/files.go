package domain

import (
	"regexp"
	"strings"
)

// ListMode selects which files a FileLister reports.
type ListMode int

const (
	// ListChanged reports files changed against HEAD, excluding deletions.
	ListChanged ListMode = iota
	// ListStaged reports files added, copied, modified or renamed in the index.
	ListStaged
	// ListAll reports every tracked file.
	ListAll
)

// ListOptions configures a file listing.
type ListOptions struct {
	Mode ListMode
	// Dir is the directory the listing runs in. Empty means the current directory.
	Dir string
}

// FileGroup is a named predicate over file names.
type FileGroup struct {
	Name  string
	Match func(name string) bool
}

// MatchPattern returns a predicate backed by a regular expression.
func MatchPattern(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

// GroupedFiles is the result of GroupFiles.
type GroupedFiles struct {
	// Groups maps a group name to its files. Groups that matched nothing are absent.
	Groups map[string][]string
	// Remaining holds files that matched no group.
	Remaining []string
}

// GroupFiles assigns each file to the first group whose predicate accepts it.
func GroupFiles(files []string, groups []FileGroup) GroupedFiles {
	result := GroupedFiles{Groups: make(map[string][]string)}
	for _, file := range files {
		matched := false
		for _, g := range groups {
			if g.Match(file) {
				result.Groups[g.Name] = append(result.Groups[g.Name], file)
				matched = true
				break
			}
		}
		if !matched {
			result.Remaining = append(result.Remaining, file)
		}
	}
	return result
}

// DefaultChunkLimit bounds the length of a formatter command line built from a chunk.
const DefaultChunkLimit = 2048

// DefaultFormatExclude lists path prefixes that belong to the package manager, not the project.
var DefaultFormatExclude = []string{".pnp.", ".yarn/", ".yarn\\"}

// ChunkFiles splits files into batches whose quoted, space separated form stays under limit.
// Files starting with one of the exclude prefixes are dropped.
// A file longer than the limit still gets a batch of its own.
func ChunkFiles(files, exclude []string, limit int) [][]string {
	var (
		chunks [][]string
		size   int
	)
	for _, file := range files {
		name := strings.Trim(file, `"`)
		if hasAnyPrefix(name, exclude) {
			continue
		}
		quoted := len(name) + 3 // surrounding quotes and separator
		if len(chunks) == 0 || size+quoted >= limit {
			chunks = append(chunks, []string{name})
			size = quoted
			continue
		}
		chunks[len(chunks)-1] = append(chunks[len(chunks)-1], name)
		size += quoted
	}
	return chunks
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// LineCountFilter selects the files counted by the line-count command.
type LineCountFilter struct {
	Suffixes []string
	Excludes []string
}

// ParseLineCountArgs splits arguments into ".suffix" includes and "-substring" excludes.
func ParseLineCountArgs(args []string) (LineCountFilter, bool) {
	var f LineCountFilter
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "."):
			f.Suffixes = append(f.Suffixes, a[1:])
		case strings.HasPrefix(a, "-"):
			f.Excludes = append(f.Excludes, a[1:])
		default:
			return LineCountFilter{}, false
		}
	}
	return f, true
}

// Matches reports whether name ends with one of the suffixes (case-insensitive)
// and contains none of the excluded substrings.
func (f LineCountFilter) Matches(name string) bool {
	lower := strings.ToLower(name)
	included := false
	for _, s := range f.Suffixes {
		if strings.HasSuffix(lower, "."+strings.ToLower(s)) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, e := range f.Excludes {
		if strings.Contains(name, e) {
			return false
		}
	}
	return true
}
