package clinicdiag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Answer is a tri-state reply. Unset is not the same as No.
type Answer uint8

const (
	Unset Answer = iota
	No
	Yes
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unset"
	}
}

// AnswerOf converts a boolean reply.
func AnswerOf(v bool) Answer {
	if v {
		return Yes
	}
	return No
}

// QuestionID returns the wire name ("q1".."q20") of question q.
func QuestionID(q int) string {
	return "q" + strconv.Itoa(q)
}

// ParseQuestionID accepts "q7" or "7" and returns the question number.
func ParseQuestionID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(s), "q"))
	if err != nil || n < 1 || n > QuestionCount {
		return 0, fmt.Errorf("unknown question %q", s)
	}
	return n, nil
}

// AnswerSet holds the replies to q1..q20. The zero value has every slot unset.
type AnswerSet struct {
	slots [QuestionCount]Answer
}

// AllAnswers returns a set with every question answered v.
func AllAnswers(v bool) AnswerSet {
	var a AnswerSet
	for i := range a.slots {
		a.slots[i] = AnswerOf(v)
	}
	return a
}

// Get returns the reply to question q (1-based); out-of-range is Unset.
func (a AnswerSet) Get(q int) Answer {
	if q < 1 || q > QuestionCount {
		return Unset
	}
	return a.slots[q-1]
}

// Set records a reply to question q (1-based).
func (a *AnswerSet) Set(q int, v bool) error {
	if q < 1 || q > QuestionCount {
		return fmt.Errorf("question %d out of range", q)
	}
	a.slots[q-1] = AnswerOf(v)
	return nil
}

// Clear makes question q unset again.
func (a *AnswerSet) Clear(q int) error {
	if q < 1 || q > QuestionCount {
		return fmt.Errorf("question %d out of range", q)
	}
	a.slots[q-1] = Unset
	return nil
}

// Unanswered lists the ids of unset questions in order.
func (a AnswerSet) Unanswered() []string {
	var ids []string
	for i, v := range a.slots {
		if v == Unset {
			ids = append(ids, QuestionID(i+1))
		}
	}
	return ids
}

// Complete reports whether every slot is explicitly yes or no.
func (a AnswerSet) Complete() bool {
	for _, v := range a.slots {
		if v == Unset {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as {"q1": true, ...}; unset slots are null.
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range a.slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(QuestionID(i + 1)))
		buf.WriteByte(':')
		switch v {
		case Yes:
			buf.WriteString("true")
		case No:
			buf.WriteString("false")
		default:
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object keyed q1..q20 with boolean or null values.
// Missing keys and null stay unset.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	var raw map[string]*bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("answers: %w", err)
	}
	var out AnswerSet
	for k, v := range raw {
		q, err := ParseQuestionID(k)
		if err != nil || k != QuestionID(q) {
			return fmt.Errorf("answers: unknown question %q", k)
		}
		if v != nil {
			out.slots[q-1] = AnswerOf(*v)
		}
	}
	*a = out
	return nil
}
