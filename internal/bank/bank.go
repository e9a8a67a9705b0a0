// Package bank holds the question catalog and the rules for authoring questions.
package bank

import (
	"github.com/stemsi/exprep-backend/internal/model"
)

// Bank is a named, versioned, ordered question set. It is read-only once built.
type Bank struct {
	Name      string
	Version   string
	Questions []model.Question
}

// Len returns the number of questions.
func (b Bank) Len() int { return len(b.Questions) }

// Index returns the questions keyed by id.
func (b Bank) Index() map[string]model.Question {
	idx := make(map[string]model.Question, len(b.Questions))
	for _, q := range b.Questions {
		idx[q.ID] = q
	}
	return idx
}

// Lookup resolves ids in order, skipping unknown ones.
func (b Bank) Lookup(ids []string) []model.Question {
	idx := b.Index()
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := idx[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// WithCustom returns a bank with the custom questions placed first. A custom
// question replaces a bank question with the same id.
func (b Bank) WithCustom(custom []model.Question) Bank {
	if len(custom) == 0 {
		return b
	}
	seen := make(map[string]struct{}, len(custom))
	merged := make([]model.Question, 0, len(custom)+len(b.Questions))
	for _, q := range custom {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		merged = append(merged, q)
	}
	for _, q := range b.Questions {
		if _, dup := seen[q.ID]; !dup {
			merged = append(merged, q)
		}
	}
	return Bank{Name: b.Name, Version: b.Version, Questions: merged}
}

// Stats counts questions per domain and per type.
type Stats struct {
	Total    int
	ByDomain map[model.Domain]int
	ByType   map[model.QuestionType]int
}

// Stats tallies the bank.
func (b Bank) Stats() Stats {
	s := Stats{
		ByDomain: map[model.Domain]int{},
		ByType:   map[model.QuestionType]int{},
	}
	for _, q := range b.Questions {
		s.Total++
		s.ByDomain[q.Domain]++
		s.ByType[q.Type()]++
	}
	return s
}
