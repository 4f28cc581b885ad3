// Package prompt builds the fixed instruction templates sent to the text
// generator. Templates embed the exact JSON envelope the reply parser expects.
package prompt

import (
	"fmt"
	"strings"
)

// Kind identifies a supported exercise kind.
type Kind string

const (
	KindFITBTFNG         Kind = "fitb_tfng"
	KindMatchingHeadings Kind = "matching_headings"
)

// ParseKind normalizes a request-supplied question type. Unrecognized values
// fall back to the mixed fill-in-blank + true/false/not-given exercise.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "matching_headings":
		return KindMatchingHeadings
	default:
		return KindFITBTFNG
	}
}

// Build returns the instruction template for the exercise kind. It is a pure
// function with no side effects.
func Build(kind Kind) string {
	if kind == KindMatchingHeadings {
		return matchingHeadingsPrompt
	}
	return fitbTFNGPrompt
}

// Translation returns the fixed prompt used for single-word translation.
func Translation(word string) string {
	return fmt.Sprintf("Translate the English word '%s' to Turkish. Return only the Turkish translation, nothing else.", word)
}

const fitbTFNGPrompt = `
Generate an IELTS reading practice set with the following components:

1. A reading passage (800-1000 words) on a general interest topic suitable for IELTS Academic.
2. 5 "fill-in-the-blank" questions based on the passage.
3. 5 "True/False/Not Given" questions based on the passage.
4. For each "fill-in-the-blank" question, include the exact sentence from the passage where the answer can be found.

IMPORTANT:
- The fill-in-the-blank questions should be challenging:
  * Use substantial paraphrasing of the original text
  * Rephrase, reorder, and restructure the sentences from the passage
  * Use synonyms and alternative phrasing while preserving meaning
  * Avoid directly copying phrases from the passage except for the blank part
- The fill-in-the-blank answers must still be exact words or short phrases copied directly from the passage.
- For True/False/Not Given questions, the answer must be exactly "True", "False", or "Not Given".
- For each True/False/Not Given question, you MUST include a relevant_passage field that contains the EXACT text from the passage that relates to the statement. This text must be a direct copy of 1-2 sentences from the passage without any modifications.

Return the result in the following JSON format. Questions 1-5 must have
question_type "FITB" and questions 6-10 must have question_type "TFNG":
{
    "passage": "Full text of the reading passage...",
    "questions": [
        {
            "id": 1,
            "question_type": "FITB",
            "question": "The text containing a _____ where a word from the passage should go.",
            "answer": "exact word or phrase from the passage",
            "source_sentence": "The complete sentence from the passage that contains the answer."
        },
        {
            "id": 6,
            "question_type": "TFNG",
            "statement": "A statement to evaluate against the passage.",
            "answer": "True",
            "relevant_passage": "The portion of the passage that is relevant to this statement."
        }
    ],
    "question_type": "mixed_fitb_tfng"
}
`

const matchingHeadingsPrompt = `
Generate an IELTS "Matching Headings" reading practice set with the following components:

1.  A reading passage (600-900 words) on a general interest topic suitable for IELTS Academic.
    The passage should be divided into 3 to 5 distinct paragraphs.
2.  A list of headings. There should be 2 to 3 more headings than the number of paragraphs.
3.  The correct mapping of each paragraph to its corresponding heading.

Return the result in the following JSON format:
{
    "passage": "Full text of the reading passage...",
    "paragraphs": [
        {"id": "A", "content": "Text of paragraph A..."},
        {"id": "B", "content": "Text of paragraph B..."},
        {"id": "C", "content": "Text of paragraph C..."}
    ],
    "headings": [
        {"id": "i", "text": "Heading text 1"},
        {"id": "ii", "text": "Heading text 2"},
        {"id": "iii", "text": "Heading text 3"},
        {"id": "iv", "text": "Heading text 4"},
        {"id": "v", "text": "Heading text 5"}
    ],
    "answers": {
        "A": "iii",
        "B": "i",
        "C": "v"
    },
    "question_type": "matching_headings"
}

IMPORTANT:
- The 'passage' field should contain the entire reading passage as a single string.
- The 'paragraphs' field must be a list of objects with "id" (e.g., "A") and "content".
- The 'headings' field must be a list of objects with "id" (e.g., "i") and "text".
- The 'answers' field must be an object mapping each paragraph "id" to the correct heading "id".
- The 'question_type' field must be the string "matching_headings".
- Ensure the number of headings is greater than the number of paragraphs by 2 or 3.
- Ensure paragraph and heading IDs are distinct and follow the specified format (letters for paragraphs, Roman numerals for headings).
`
