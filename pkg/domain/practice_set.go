package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParsePracticeSet decodes a model reply payload and checks that the keys the
// requested schema requires are present. Content itself is not verified: an
// answer string is trusted to be an excerpt of the passage, a heading mapping
// is trusted to reference real ids. That risk belongs to the upstream model.
func ParsePracticeSet(data []byte) (PracticeSet, error) {
	var ps PracticeSet
	if err := json.Unmarshal(data, &ps); err != nil {
		return PracticeSet{}, fmt.Errorf("decode practice set: %w", err)
	}
	if err := ps.validate(); err != nil {
		return PracticeSet{}, fmt.Errorf("practice set schema: %w", err)
	}
	return ps, nil
}

func (ps PracticeSet) validate() error {
	if strings.TrimSpace(ps.Passage) == "" {
		return errors.New("passage is missing")
	}
	switch ps.Kind {
	case KindFITBTFNG:
		return ps.validateQuestions()
	case KindMatchingHeadings:
		return ps.validateHeadings()
	default:
		return fmt.Errorf("unknown question_type %q", ps.Kind)
	}
}

func (ps PracticeSet) validateQuestions() error {
	if len(ps.Questions) == 0 {
		return errors.New("questions are missing")
	}
	for _, q := range ps.Questions {
		switch q.Type {
		case QuestionFITB:
			if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
				return fmt.Errorf("fill-in-blank question %d lacks question or answer", q.ID)
			}
		case QuestionTFNG:
			if strings.TrimSpace(q.Statement) == "" || strings.TrimSpace(q.Answer) == "" {
				return fmt.Errorf("true/false/not-given question %d lacks statement or answer", q.ID)
			}
		default:
			return fmt.Errorf("question %d has unknown type %q", q.ID, q.Type)
		}
	}
	return nil
}

func (ps PracticeSet) validateHeadings() error {
	if len(ps.Paragraphs) == 0 {
		return errors.New("paragraphs are missing")
	}
	if len(ps.Headings) == 0 {
		return errors.New("headings are missing")
	}
	if len(ps.Answers) == 0 {
		return errors.New("answers are missing")
	}
	for _, p := range ps.Paragraphs {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Content) == "" {
			return errors.New("paragraph lacks id or content")
		}
	}
	for _, h := range ps.Headings {
		if strings.TrimSpace(h.ID) == "" || strings.TrimSpace(h.Text) == "" {
			return errors.New("heading lacks id or text")
		}
	}
	return nil
}
