package model

import (
	"encoding/json"
	"fmt"
)

// Answer is a learner's response. Its Type always matches the question it answers;
// a nil MCQ/Numeric value means "not answered".
type Answer interface {
	Type() QuestionType
	isAnswer()
}

type MCQAnswer struct{ Value *int }
type MSQAnswer struct{ Value []int }
type NumericAnswer struct{ Value *float64 }
type FillAnswer struct{ Value string }
type OrderAnswer struct{ Value []int }
type MatchAnswer struct{ Value []int }

func (MCQAnswer) Type() QuestionType     { return QuestionTypeMCQ }
func (MSQAnswer) Type() QuestionType     { return QuestionTypeMSQ }
func (NumericAnswer) Type() QuestionType { return QuestionTypeNumeric }
func (FillAnswer) Type() QuestionType    { return QuestionTypeFill }
func (OrderAnswer) Type() QuestionType   { return QuestionTypeOrder }
func (MatchAnswer) Type() QuestionType   { return QuestionTypeMatch }

func (MCQAnswer) isAnswer()     {}
func (MSQAnswer) isAnswer()     {}
func (NumericAnswer) isAnswer() {}
func (FillAnswer) isAnswer()    {}
func (OrderAnswer) isAnswer()   {}
func (MatchAnswer) isAnswer()   {}

// TaggedAnswer carries an Answer across JSON as {"type": ..., "value": ...}.
type TaggedAnswer struct {
	Answer Answer
}

type answerEnvelope struct {
	Type  QuestionType    `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (t TaggedAnswer) MarshalJSON() ([]byte, error) {
	if t.Answer == nil {
		return []byte("null"), nil
	}

	var value any
	switch a := t.Answer.(type) {
	case MCQAnswer:
		value = a.Value
	case MSQAnswer:
		value = nonNilInts(a.Value)
	case NumericAnswer:
		value = a.Value
	case FillAnswer:
		value = a.Value
	case OrderAnswer:
		value = nonNilInts(a.Value)
	case MatchAnswer:
		value = nonNilInts(a.Value)
	default:
		return nil, fmt.Errorf("unsupported answer %T", t.Answer)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerEnvelope{Type: t.Answer.Type(), Value: raw})
}

func (t *TaggedAnswer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Answer = nil
		return nil
	}

	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if len(env.Value) == 0 {
		env.Value = json.RawMessage("null")
	}

	var err error
	switch env.Type {
	case QuestionTypeMCQ:
		var a MCQAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	case QuestionTypeMSQ:
		var a MSQAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	case QuestionTypeNumeric:
		var a NumericAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	case QuestionTypeFill:
		var a FillAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	case QuestionTypeOrder:
		var a OrderAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	case QuestionTypeMatch:
		var a MatchAnswer
		err = json.Unmarshal(env.Value, &a.Value)
		t.Answer = a
	default:
		return fmt.Errorf("unknown answer type %q", env.Type)
	}
	return err
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
