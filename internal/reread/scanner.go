// Package reread groups reading files that share a base slug and derives
// each file's position (read count) within its group. Nothing is cached:
// every query starts from a fresh directory listing.
package reread

import (
	"fmt"
	"sort"
	"time"

	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/slug"
	"github.com/starford/readlog/internal/storage"
)

// Map is base slug -> filenames in canonical order: the base file first,
// then ascending by numeric suffix.
type Map map[string][]string

type entry struct {
	name string
	id   slug.Name
}

// BuildMap parses, groups and orders a directory listing in one pass.
// Names outside the reading filename grammar are ignored.
//
// A stem like catch-22 parses as sequence 22 of "catch". It is treated as
// the base file of its own group instead when another file belongs to base
// "catch-22" (catch-22-02.md), or when it would be the only member of
// "catch". Every reader of the directory goes through this one rule.
func BuildMap(filenames []string) Map {
	entries := make([]entry, 0, len(filenames))
	bases := make(map[string]struct{}, len(filenames))
	sizes := make(map[string]int, len(filenames))
	for _, f := range filenames {
		if !slug.Valid(f) {
			continue
		}
		id, ok := slug.Parse(slug.Stem(f))
		if !ok {
			continue
		}
		entries = append(entries, entry{name: f, id: id})
		bases[id.Base] = struct{}{}
		sizes[id.Base]++
	}

	for i, e := range entries {
		stem := slug.Stem(e.name)
		if stem == e.id.Base {
			continue
		}
		if _, ok := bases[stem]; ok || sizes[e.id.Base] == 1 {
			entries[i].id = slug.Name{Base: stem, Sequence: 1}
		}
	}

	grouped := make(map[string][]entry)
	for _, e := range entries {
		grouped[e.id.Base] = append(grouped[e.id.Base], e)
	}

	m := make(Map, len(grouped))
	for base, es := range grouped {
		sort.SliceStable(es, func(i, j int) bool {
			if es[i].id.Sequence != es[j].id.Sequence {
				return es[i].id.Sequence < es[j].id.Sequence
			}
			iBase := slug.Stem(es[i].name) == base
			jBase := slug.Stem(es[j].name) == base
			if iBase != jBase {
				return iBase
			}
			return es[i].name < es[j].name
		})
		names := make([]string, len(es))
		for i, e := range es {
			names[i] = e.name
		}
		m[base] = names
	}
	return m
}

// Bases returns the group keys sorted.
func (m Map) Bases() []string {
	out := make([]string, 0, len(m))
	for b := range m {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Latest returns the most recent reading of base: the last file in
// canonical order, regardless of modification times.
func (m Map) Latest(base string) (string, bool) {
	files := m[base]
	if len(files) == 0 {
		return "", false
	}
	return files[len(files)-1], true
}

// BaseOf returns the group a filename belongs to.
func (m Map) BaseOf(filename string) (string, bool) {
	if id, ok := slug.Parse(slug.Stem(filename)); ok {
		if indexOf(m[id.Base], filename) >= 0 {
			return id.Base, true
		}
	}
	for base, files := range m {
		if indexOf(files, filename) >= 0 {
			return base, true
		}
	}
	return "", false
}

// ReadCount returns the 1-based position of filename in its group, or 1 if
// the file is not in the map.
func ReadCount(filename string, m Map) int {
	base, ok := m.BaseOf(filename)
	if !ok {
		return 1
	}
	return indexOf(m[base], filename) + 1
}

// FindExisting lists the readings of base in canonical order. A missing
// directory yields an empty list. Matching is exact: "1984" never matches
// "1984-redux".
func FindExisting(p storage.Provider, base string) ([]string, error) {
	names, err := p.List()
	if err != nil {
		return nil, fmt.Errorf("reread: list %s: %w", p.Root(), err)
	}
	return BuildMap(names)[base], nil
}

// Recent describes the latest reading of a work.
type Recent struct {
	Filename string
	Date     *time.Time
	Count    int
}

// MostRecent reports the latest reading of base and how many readings the
// group holds. Count is 0 when the work has never been read.
func MostRecent(store *record.Store, base string) (Recent, error) {
	files, err := FindExisting(store.Provider(), base)
	if err != nil {
		return Recent{}, err
	}
	if len(files) == 0 {
		return Recent{}, nil
	}
	last := files[len(files)-1]
	doc, err := store.Read(last)
	if err != nil {
		return Recent{}, err
	}
	r, err := record.Decode(doc.Frontmatter)
	if err != nil {
		return Recent{}, fmt.Errorf("reread: %s: %w", last, err)
	}
	return Recent{Filename: last, Date: r.Finished, Count: len(files)}, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
