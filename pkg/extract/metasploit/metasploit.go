// Package metasploit extracts exploit records from Metasploit Framework
// module sources.
//
// Module files are Ruby, but only a handful of literal fields of the module
// info hash are needed, so they are matched with a small explicit grammar
// instead of parsing Ruby. Every field reports whether it was found so that
// callers can tell a default from an extracted value.
package metasploit

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const (
	DefaultRepository = "https://github.com/rapid7/metasploit-framework.git"

	ModulesDir = "modules/exploits"

	DefaultName     = "Unknown"
	DefaultPlatform = "unknown"

	ExploitType = "metasploit_module"
	Language    = "ruby"
)

var (
	reName        = regexp.MustCompile(`['"]Name['"]\s*=>\s*(?:'([^']*)'|"([^"]*)")`)
	reDescription = regexp.MustCompile(`['"]Description['"]\s*=>\s*`)
	reCVE         = regexp.MustCompile(`\[\s*['"]CVE['"]\s*,\s*['"](\d{4}-\d+)['"]\s*\]`)
	rePlatform    = regexp.MustCompile(`['"]Platform['"]\s*=>\s*(?:\[([^\]]*)\]|%w\[([^\]]*)\]|'([^']*)'|"([^"]*)")`)
	reDate        = regexp.MustCompile(`['"]DisclosureDate['"]\s*=>\s*(?:'([^']*)'|"([^"]*)")`)
	reAuthor      = regexp.MustCompile(`(?s)['"]Author['"]\s*=>\s*(?:\[(.*?)\]|%w\[([^\]]*)\]|'([^']*)'|"([^"]*)")`)
	reQuoted      = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	reSpace       = regexp.MustCompile(`\s+`)
)

type Field struct {
	Value string
	Found bool
}

// Or returns the value when found and def otherwise.
func (f Field) Or(def string) string {
	if !f.Found {
		return def
	}
	return f.Value
}

type Module struct {
	Name           Field
	Description    Field
	Platform       Field
	DisclosureDate Field
	Author         Field
	CVEIDs         []string
}

// Parse matches the module info fields in content. It never fails; fields
// that do not match are reported as not found.
func Parse(content string) Module {
	m := Module{
		Name:           scalar(reName, content),
		Description:    description(content),
		Platform:       list(rePlatform, content),
		DisclosureDate: scalar(reDate, content),
		Author:         list(reAuthor, content),
		CVEIDs:         []string{},
	}
	if m.Description.Found {
		m.Description.Value = strings.TrimSpace(reSpace.ReplaceAllString(m.Description.Value, " "))
	}
	for _, match := range reCVE.FindAllStringSubmatch(content, -1) {
		id := "CVE-" + match[1]
		if !slices.Contains(m.CVEIDs, id) {
			m.CVEIDs = append(m.CVEIDs, id)
		}
	}
	return m
}

// closers maps the opening delimiters accepted after %q to their closers.
var closers = map[byte]byte{'{': '}', '(': ')', '[': ']', '<': '>'}

// description reads the value following the Description key: a %q or %Q
// literal with balanced delimiters, or a single or double quoted string.
func description(content string) Field {
	loc := reDescription.FindStringIndex(content)
	if loc == nil {
		return Field{}
	}
	rest := content[loc[1]:]

	switch {
	case len(rest) >= 3 && rest[0] == '%' && (rest[1] == 'q' || rest[1] == 'Q'):
		open := rest[2]
		closer, ok := closers[open]
		if !ok {
			return Field{}
		}
		depth := 1
		for i := 3; i < len(rest); i++ {
			switch rest[i] {
			case '\\':
				i++
			case open:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return Field{Value: rest[3:i], Found: true}
				}
			}
		}
		return Field{}
	case len(rest) >= 1 && (rest[0] == '\'' || rest[0] == '"'):
		end := strings.IndexByte(rest[1:], rest[0])
		if end < 0 {
			return Field{}
		}
		return Field{Value: rest[1 : 1+end], Found: true}
	default:
		return Field{}
	}
}

// scalar returns the first non-empty alternative group of the first match.
func scalar(re *regexp.Regexp, content string) Field {
	match := re.FindStringSubmatchIndex(content)
	if match == nil {
		return Field{}
	}
	for i := 2; i < len(match); i += 2 {
		if match[i] >= 0 {
			return Field{Value: content[match[i]:match[i+1]], Found: true}
		}
	}
	return Field{Found: true}
}

// list accepts an array literal of quoted strings, a %w[] word list, or a
// single quoted string, and joins the elements with ",".
func list(re *regexp.Regexp, content string) Field {
	match := re.FindStringSubmatchIndex(content)
	if match == nil {
		return Field{}
	}
	group := func(i int) (string, bool) {
		if match[2*i] < 0 {
			return "", false
		}
		return content[match[2*i]:match[2*i+1]], true
	}

	var vs []string
	if s, ok := group(1); ok {
		for _, q := range reQuoted.FindAllStringSubmatch(s, -1) {
			if v := q[1] + q[2]; v != "" {
				vs = append(vs, v)
			}
		}
	} else if s, ok := group(2); ok {
		vs = strings.Fields(s)
	} else if s, ok := group(3); ok {
		vs = []string{s}
	} else if s, ok := group(4); ok {
		vs = []string{s}
	}
	return Field{Value: strings.Join(vs, ","), Found: true}
}

// Walk yields the path of every .rb file under root/modules/exploits in
// lexical order. A missing modules directory is yielded as an error.
func Walk(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dir := filepath.Join(root, filepath.FromSlash(ModulesDir))
		info, err := os.Stat(dir)
		if err != nil {
			yield("", errors.Wrapf(err, "stat %s", dir))
			return
		}
		if !info.IsDir() {
			yield("", errors.Errorf("unexpected file type. expected: %q, actual: %q", fs.ModeDir, info.Mode().Type()))
			return
		}

		if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".rb" {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		}); err != nil {
			yield("", errors.Wrapf(err, "walk %s", dir))
		}
	}
}

// Extractor turns a module file path into an exploit record. Root is the
// repository root that record ids are made relative to.
type Extractor struct {
	Root string
}

func (e Extractor) Extract(path string) (types.ExploitRecord, bool) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return types.ExploitRecord{}, false
	}
	rel, err := filepath.Rel(e.Root, path)
	if err != nil {
		return types.ExploitRecord{}, false
	}

	content := string(bs)
	m := Parse(content)
	return types.ExploitRecord{
		ID:          filepath.ToSlash(rel),
		Kind:        types.ExploitKindExploit,
		Name:        m.Name.Or(DefaultName),
		Description: m.Description.Or(""),
		Date:        m.DisclosureDate.Or(""),
		Author:      m.Author.Or(""),
		Platform:    m.Platform.Or(DefaultPlatform),
		Type:        ExploitType,
		CVEIDs:      m.CVEIDs,
		Content:     content,
		Source:      types.SourceMetasploit,
		Language:    Language,
	}, true
}
