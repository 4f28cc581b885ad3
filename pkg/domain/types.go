package domain

import "time"

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous generation request. A job is written once as
// pending and transitions exactly once to completed or failed; terminal
// records are never mutated again.
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	PracticeSetID string    `json:"practice_set_id,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Terminal reports whether the job reached its final state.
func (j Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// ExerciseKind discriminates the practice-set variants. The values match the
// question_type field the model is instructed to emit.
type ExerciseKind string

const (
	KindFITBTFNG         ExerciseKind = "mixed_fitb_tfng"
	KindMatchingHeadings ExerciseKind = "matching_headings"
)

type QuestionType string

const (
	QuestionFITB QuestionType = "FITB"
	QuestionTFNG QuestionType = "TFNG"
)

// Question is one item of a mixed FITB/TFNG set. FITB items carry
// Question/Answer/SourceSentence; TFNG items carry Statement/Answer/RelevantPassage.
type Question struct {
	ID              int          `json:"id"`
	Type            QuestionType `json:"question_type"`
	Question        string       `json:"question,omitempty"`
	Statement       string       `json:"statement,omitempty"`
	Answer          string       `json:"answer"`
	SourceSentence  string       `json:"source_sentence,omitempty"`
	RelevantPassage string       `json:"relevant_passage,omitempty"`
}

type Paragraph struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type Heading struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PracticeSet is generated exercise content persisted under its own id.
// Kind selects which variant fields are populated: Questions for the mixed
// FITB/TFNG set, Paragraphs/Headings/Answers for matching headings.
// ShareURL is derived; readers overwrite it from the request origin.
type PracticeSet struct {
	ID         string            `json:"id"`
	Kind       ExerciseKind      `json:"question_type"`
	Passage    string            `json:"passage"`
	Questions  []Question        `json:"questions,omitempty"`
	Paragraphs []Paragraph       `json:"paragraphs,omitempty"`
	Headings   []Heading         `json:"headings,omitempty"`
	Answers    map[string]string `json:"answers,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	ShareURL   string            `json:"shareUrl,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Progress records a user's scores for one practice set. The pair
// (UserID, PracticeSetID) identifies the record; saving again upserts.
type Progress struct {
	UserID        string    `json:"-"`
	PracticeSetID string    `json:"practice_set_id"`
	ScoreFITB     string    `json:"score_fitb,omitempty"`
	ScoreTFNG     string    `json:"score_tfng,omitempty"`
	ScoreMH       string    `json:"score_mh,omitempty"`
	DateAttempted time.Time `json:"date_attempted"`
}
