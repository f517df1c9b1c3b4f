package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// gitignoreParser parses a .gitignore file and matches candidate paths
// against it, independent of the doublestar include/exclude globs the
// walker also applies. Adapted from the teacher's config.GitignoreParser
// (internal/config/gitignore.go): same pattern-classification/fast-path
// approach, trimmed of the LCI-specific "exclusion pattern" conversion
// the walker has no use for (it consults shouldIgnore directly).
type gitignoreParser struct {
	patterns []gitignorePattern

	regexCache sync.Map
}

type gitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool

	patternType patternType
	compiled    *regexp.Regexp
	prefix      string
	suffix      string
}

type patternType int

const (
	patternExact patternType = iota
	patternPrefix
	patternSuffix
	patternWildcard
	patternComplex
)

func newGitignoreParser() *gitignoreParser {
	return &gitignoreParser{}
}

// load reads root's .gitignore, if any; a missing file is not an error.
func (gp *gitignoreParser) load(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.patterns = append(gp.patterns, gp.parsePattern(line))
	}
	return scanner.Err()
}

func (gp *gitignoreParser) parsePattern(line string) gitignorePattern {
	p := gitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	p.patternType, p.prefix, p.suffix, p.compiled = gp.analyzePattern(line)
	return p
}

func (gp *gitignoreParser) analyzePattern(pattern string) (patternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pattern, "*?[") {
		return patternExact, pattern, pattern, nil
	}
	if strings.Contains(pattern, "*") && !strings.ContainsAny(pattern, "?[") {
		if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
			return patternSuffix, "", pattern[1:], nil
		}
		if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
			return patternPrefix, pattern[:len(pattern)-1], "", nil
		}
	}
	regex := "^" + strings.NewReplacer(`\*`, `.*`, `\?`, `.`).Replace(regexp.QuoteMeta(pattern)) + "$"
	if cached, ok := gp.regexCache.Load(regex); ok {
		return patternComplex, "", "", cached.(*regexp.Regexp)
	}
	compiled, err := regexp.Compile(regex)
	if err != nil {
		return patternWildcard, "", "", nil
	}
	gp.regexCache.Store(regex, compiled)
	return patternComplex, "", "", compiled
}

// shouldIgnore reports whether path (forward-slash, root-relative) is
// ignored, applying patterns in file order so a later negation can
// re-admit an earlier match.
func (gp *gitignoreParser) shouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, p := range gp.patterns {
		if gp.matches(p, path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (gp *gitignoreParser) matches(p gitignorePattern, path string, isDir bool) bool {
	if p.Directory {
		if isDir {
			return gp.fastMatch(p, path) || strings.HasPrefix(path, p.Pattern+"/")
		}
		return strings.HasPrefix(path, p.Pattern+"/") || gp.fastMatch(p, path)
	}
	if p.Absolute {
		return gp.fastMatch(p, path)
	}
	if gp.fastMatch(p, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if gp.fastMatch(p, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func (gp *gitignoreParser) fastMatch(p gitignorePattern, path string) bool {
	switch p.patternType {
	case patternExact:
		return p.Pattern == path
	case patternPrefix:
		return strings.HasPrefix(path, p.prefix)
	case patternSuffix:
		return strings.HasSuffix(path, p.suffix)
	case patternComplex:
		return p.compiled.MatchString(path)
	default:
		matched, _ := filepath.Match(p.Pattern, path)
		return matched
	}
}
