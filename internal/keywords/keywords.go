// Package keywords holds the weighted keyword lexicon used by the local scorer.
package keywords

import (
	"strings"

	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/text"
)

// MaxWeight bounds keyword weights
const MaxWeight = 5.0

// Entry is a weighted term with its known spellings.
// Terms and variants are single words; multi-word ones are skipped on Compile.
type Entry struct {
	Term     string   `yaml:"term" json:"term"`
	Weight   float64  `yaml:"weight" json:"weight"`
	Variants []string `yaml:"variants" json:"variants"`
}

// Group is the keyword list of one context type
type Group struct {
	Keywords []Entry `yaml:"keywords" json:"keywords"`
}

// Set is the external keyword format: context tag -> keyword group
type Set map[model.ContextType]Group

// compiledEntry caches the stemmed forms of an entry
type compiledEntry struct {
	entry Entry
	keys  []string // stemmed term first, then stemmed variants
}

// Snapshot is an immutable, compiled keyword set shared by all analyses
type Snapshot struct {
	contexts map[model.ContextType][]compiledEntry
	source   string
	fallback bool
	skipped  int
}

// Compile stems every term and variant of set. Entries keep their order,
// so the first matching entry of a context is stable.
func Compile(set Set, n *text.Normalizer, source string) *Snapshot {
	snap := &Snapshot{
		contexts: make(map[model.ContextType][]compiledEntry, len(set)),
		source:   source,
	}
	for ctxType, group := range set {
		if !ctxType.IsValid() {
			continue
		}
		entries := make([]compiledEntry, 0, len(group.Keywords))
		for _, e := range group.Keywords {
			if e.Term == "" || e.Weight <= 0 || e.Weight > MaxWeight {
				continue
			}
			key := n.Key(e.Term)
			if !singleWord(key) {
				snap.skipped++
				continue
			}
			keys := []string{key}
			var variants []string
			for _, v := range e.Variants {
				vk := n.Key(v)
				if !singleWord(vk) {
					snap.skipped++
					continue
				}
				keys = append(keys, vk)
				variants = append(variants, v)
			}
			e.Variants = variants
			entries = append(entries, compiledEntry{entry: e, keys: keys})
		}
		if len(entries) > 0 {
			snap.contexts[ctxType] = entries
		}
	}
	return snap
}

// singleWord reports whether a compiled key can equal a normalized token
func singleWord(key string) bool {
	return key != "" && !strings.Contains(key, " ")
}

// Types returns the context types that have keywords, in canonical order
func (s *Snapshot) Types() []model.ContextType {
	var types []model.ContextType
	for _, t := range model.AllContextTypes() {
		if _, ok := s.contexts[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Match returns the first entry of ctxType whose stemmed term or variant equals token
func (s *Snapshot) Match(ctxType model.ContextType, token string) (Entry, bool) {
	for _, ce := range s.contexts[ctxType] {
		for _, key := range ce.keys {
			if key == token {
				return ce.entry, true
			}
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the entries of ctxType
func (s *Snapshot) Entries(ctxType model.ContextType) []Entry {
	compiled := s.contexts[ctxType]
	out := make([]Entry, len(compiled))
	for i, ce := range compiled {
		out[i] = ce.entry
	}
	return out
}

// Len returns the total number of entries
func (s *Snapshot) Len() int {
	n := 0
	for _, entries := range s.contexts {
		n += len(entries)
	}
	return n
}

// Source names where the snapshot was loaded from
func (s *Snapshot) Source() string {
	return s.source
}

// Skipped returns how many terms and variants were dropped for spanning several words
func (s *Snapshot) Skipped() int {
	return s.skipped
}

// IsFallback reports whether the embedded set replaced an unavailable source
func (s *Snapshot) IsFallback() bool {
	return s.fallback
}

// Set converts the snapshot back to the external format
func (s *Snapshot) Set() Set {
	set := make(Set, len(s.contexts))
	for t := range s.contexts {
		set[t] = Group{Keywords: s.Entries(t)}
	}
	return set
}
