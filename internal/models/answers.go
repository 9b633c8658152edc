package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AnswerKey addresses a question by topic and question index.
// Its text form is "<topic>-<question>".
type AnswerKey struct {
	Topic    int
	Question int
}

func (k AnswerKey) String() string {
	return strconv.Itoa(k.Topic) + "-" + strconv.Itoa(k.Question)
}

func (k AnswerKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AnswerKey) UnmarshalText(b []byte) error {
	parsed, err := ParseAnswerKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseAnswerKey parses the "<topic>-<question>" form.
func ParseAnswerKey(s string) (AnswerKey, error) {
	left, right, ok := strings.Cut(s, "-")
	if !ok {
		return AnswerKey{}, fmt.Errorf("invalid answer key %q", s)
	}
	t, err := strconv.Atoi(left)
	if err != nil || t < 0 {
		return AnswerKey{}, fmt.Errorf("invalid topic index in answer key %q", s)
	}
	q, err := strconv.Atoi(right)
	if err != nil || q < 0 {
		return AnswerKey{}, fmt.Errorf("invalid question index in answer key %q", s)
	}
	return AnswerKey{Topic: t, Question: q}, nil
}

// Answers maps a question to the option the user selected.
type Answers map[AnswerKey]int

// Selected returns the option selected for key.
func (a Answers) Selected(key AnswerKey) (int, bool) {
	v, ok := a[key]
	return v, ok
}

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
