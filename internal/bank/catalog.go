package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stemsi/exprep-backend/internal/model"
)

// CatalogName is the display name of the built-in bank.
const CatalogName = "Payroll Certification Catalog"

//go:embed static_questions.json
var staticQuestionsJSON []byte

var loadCatalog = sync.OnceValues(func() (Bank, error) {
	var static []model.Question
	if err := json.Unmarshal(staticQuestionsJSON, &static); err != nil {
		return Bank{}, fmt.Errorf("decode static questions: %w", err)
	}
	questions := append(static, generateQuestions()...)
	return Bank{Name: CatalogName, Version: model.LocalBankVersion, Questions: questions}, nil
})

// Catalog returns the local static bank: the concept questions followed by the
// generated calculation and practice variants.
func Catalog() (Bank, error) {
	b, err := loadCatalog()
	if err != nil {
		return Bank{}, err
	}
	out := make([]model.Question, len(b.Questions))
	copy(out, b.Questions)
	b.Questions = out
	return b, nil
}

// MustCatalog is Catalog for callers that cannot continue without it.
func MustCatalog() Bank {
	b, err := Catalog()
	if err != nil {
		panic(err)
	}
	return b
}
