package model

import (
	"encoding/json"
	"fmt"
)

// Domain is one of the five fixed payroll knowledge areas a question belongs to.
type Domain string

const (
	DomainProcedures Domain = "Payroll Procedures and Calculations"
	DomainTax        Domain = "Tax Laws and Regulations"
	DomainCompliance Domain = "Compliance and Recordkeeping"
	DomainSoftware   Domain = "Payroll Software and Systems"
	DomainEthics     Domain = "Ethical Considerations and Customer Service"
)

// Domains lists every domain in the order used by exam quotas and reports.
var Domains = []Domain{
	DomainProcedures,
	DomainTax,
	DomainCompliance,
	DomainSoftware,
	DomainEthics,
}

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// QuestionType is the tag shared by Question bodies and Answers.
type QuestionType string

const (
	QuestionTypeMCQ     QuestionType = "mcq"
	QuestionTypeMSQ     QuestionType = "msq"
	QuestionTypeNumeric QuestionType = "numeric"
	QuestionTypeFill    QuestionType = "fill"
	QuestionTypeOrder   QuestionType = "order"
	QuestionTypeMatch   QuestionType = "match"
)

var QuestionTypes = []QuestionType{
	QuestionTypeMCQ,
	QuestionTypeMSQ,
	QuestionTypeNumeric,
	QuestionTypeFill,
	QuestionTypeOrder,
	QuestionTypeMatch,
}

// Question is an immutable bank item. The type-specific answer key lives in Body,
// which is one of MCQ, MSQ, Numeric, Fill, Order or Match.
type Question struct {
	ID          string
	Domain      Domain
	Difficulty  Difficulty
	Prompt      string
	Explanation string
	Tags        []string
	Scenario    bool
	Body        Body
}

// Type returns the question's tag, or "" when the body is missing.
func (q Question) Type() QuestionType {
	if q.Body == nil {
		return ""
	}
	return q.Body.Type()
}

// Body is the closed set of per-type answer keys.
type Body interface {
	Type() QuestionType
	isBody()
}

// MCQ has a single correct option.
type MCQ struct {
	Options      []string
	CorrectIndex int
}

// MSQ has an unordered set of correct options.
type MSQ struct {
	Options        []string
	CorrectIndices []int
}

// Numeric is graded against CorrectValue with an inclusive absolute Tolerance.
type Numeric struct {
	CorrectValue float64
	Tolerance    float64
	UnitHint     string
}

// Fill is a free-text answer compared case- and surrounding-whitespace-insensitively.
type Fill struct {
	CorrectAnswer string
}

// Order expects the option indices arranged as CorrectOrder.
type Order struct {
	Options      []string
	CorrectOrder []int
}

// Match pairs every row with an option; CorrectMatches[i] is the option for Rows[i].
type Match struct {
	Rows           []string
	Options        []string
	CorrectMatches []int
}

func (MCQ) Type() QuestionType     { return QuestionTypeMCQ }
func (MSQ) Type() QuestionType     { return QuestionTypeMSQ }
func (Numeric) Type() QuestionType { return QuestionTypeNumeric }
func (Fill) Type() QuestionType    { return QuestionTypeFill }
func (Order) Type() QuestionType   { return QuestionTypeOrder }
func (Match) Type() QuestionType   { return QuestionTypeMatch }

func (MCQ) isBody()     {}
func (MSQ) isBody()     {}
func (Numeric) isBody() {}
func (Fill) isBody()    {}
func (Order) isBody()   {}
func (Match) isBody()   {}

// QuestionDraft is the flat JSON shape of a question. It is what authors submit and
// what banks are serialized as; pointer fields distinguish "missing" from zero.
type QuestionDraft struct {
	ID          string       `json:"id" validate:"required"`
	Domain      Domain       `json:"domain" validate:"required,oneof='Payroll Procedures and Calculations' 'Tax Laws and Regulations' 'Compliance and Recordkeeping' 'Payroll Software and Systems' 'Ethical Considerations and Customer Service'"`
	Difficulty  Difficulty   `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Type        QuestionType `json:"type" validate:"required,oneof=mcq msq numeric fill order match"`
	Prompt      string       `json:"prompt" validate:"required"`
	Explanation string       `json:"explanation" validate:"required"`
	Tags        []string     `json:"tags,omitempty"`
	Scenario    bool         `json:"scenario,omitempty"`

	Options        []string `json:"options,omitempty"`
	CorrectIndex   *int     `json:"correctIndex,omitempty"`
	CorrectIndices []int    `json:"correctIndices,omitempty"`
	CorrectValue   *float64 `json:"correctValue,omitempty"`
	Tolerance      *float64 `json:"tolerance,omitempty" validate:"omitempty,gte=0"`
	UnitHint       string   `json:"unitHint,omitempty"`
	CorrectAnswer  string   `json:"correctAnswer,omitempty"`
	CorrectOrder   []int    `json:"correctOrder,omitempty"`
	Rows           []string `json:"rows,omitempty"`
	CorrectMatches []int    `json:"correctMatches,omitempty"`
}

// Build converts the draft into a Question. Missing per-type fields become zero
// values; run bank.Validate first when the draft comes from an author.
func (d QuestionDraft) Build() (Question, error) {
	q := Question{
		ID:          d.ID,
		Domain:      d.Domain,
		Difficulty:  d.Difficulty,
		Prompt:      d.Prompt,
		Explanation: d.Explanation,
		Tags:        d.Tags,
		Scenario:    d.Scenario,
	}

	switch d.Type {
	case QuestionTypeMCQ:
		q.Body = MCQ{Options: d.Options, CorrectIndex: derefInt(d.CorrectIndex)}
	case QuestionTypeMSQ:
		q.Body = MSQ{Options: d.Options, CorrectIndices: d.CorrectIndices}
	case QuestionTypeNumeric:
		q.Body = Numeric{
			CorrectValue: derefFloat(d.CorrectValue),
			Tolerance:    derefFloat(d.Tolerance),
			UnitHint:     d.UnitHint,
		}
	case QuestionTypeFill:
		q.Body = Fill{CorrectAnswer: d.CorrectAnswer}
	case QuestionTypeOrder:
		q.Body = Order{Options: d.Options, CorrectOrder: d.CorrectOrder}
	case QuestionTypeMatch:
		q.Body = Match{Rows: d.Rows, Options: d.Options, CorrectMatches: d.CorrectMatches}
	default:
		return Question{}, fmt.Errorf("unknown question type %q", d.Type)
	}
	return q, nil
}

// Draft flattens the question back into its JSON shape.
func (q Question) Draft() QuestionDraft {
	d := QuestionDraft{
		ID:          q.ID,
		Domain:      q.Domain,
		Difficulty:  q.Difficulty,
		Type:        q.Type(),
		Prompt:      q.Prompt,
		Explanation: q.Explanation,
		Tags:        q.Tags,
		Scenario:    q.Scenario,
	}

	switch b := q.Body.(type) {
	case MCQ:
		idx := b.CorrectIndex
		d.Options, d.CorrectIndex = b.Options, &idx
	case MSQ:
		d.Options, d.CorrectIndices = b.Options, b.CorrectIndices
	case Numeric:
		v, tol := b.CorrectValue, b.Tolerance
		d.CorrectValue, d.Tolerance, d.UnitHint = &v, &tol, b.UnitHint
	case Fill:
		d.CorrectAnswer = b.CorrectAnswer
	case Order:
		d.Options, d.CorrectOrder = b.Options, b.CorrectOrder
	case Match:
		d.Rows, d.Options, d.CorrectMatches = b.Rows, b.Options, b.CorrectMatches
	}
	return d
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Draft())
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var d QuestionDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	built, err := d.Build()
	if err != nil {
		return err
	}
	*q = built
	return nil
}

// QuestionForLearner is the question as shown during a session (no answer key).
type QuestionForLearner struct {
	ID            string       `json:"id"`
	Domain        Domain       `json:"domain"`
	Difficulty    Difficulty   `json:"difficulty"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Tags          []string     `json:"tags,omitempty"`
	Scenario      bool         `json:"scenario,omitempty"`
	Options       []string     `json:"options,omitempty"`
	Rows          []string     `json:"rows,omitempty"`
	UnitHint      string       `json:"unitHint,omitempty"`
	DefaultAnswer TaggedAnswer `json:"defaultAnswer"`
}

// ForLearner strips the answer key. defaultAnswer is supplied by the grading engine.
func (q Question) ForLearner(defaultAnswer Answer) QuestionForLearner {
	view := QuestionForLearner{
		ID:            q.ID,
		Domain:        q.Domain,
		Difficulty:    q.Difficulty,
		Type:          q.Type(),
		Prompt:        q.Prompt,
		Tags:          q.Tags,
		Scenario:      q.Scenario,
		DefaultAnswer: TaggedAnswer{Answer: defaultAnswer},
	}
	switch b := q.Body.(type) {
	case MCQ:
		view.Options = b.Options
	case MSQ:
		view.Options = b.Options
	case Numeric:
		view.UnitHint = b.UnitHint
	case Order:
		view.Options = b.Options
	case Match:
		view.Rows, view.Options = b.Rows, b.Options
	}
	return view
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
