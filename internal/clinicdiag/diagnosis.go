package clinicdiag

import (
	"errors"
	"fmt"
)

// Status is the three-tier overall classification.
type Status string

const (
	StatusStable           Status = "安定"
	StatusNeedsImprovement Status = "改善点あり"
	StatusAtRisk           Status = "リスクあり"
)

const (
	stableThreshold      = 15
	improvementThreshold = 10
)

// StatusFor classifies a total yes-count, evaluated high to low.
func StatusFor(totalYes int) Status {
	switch {
	case totalYes >= stableThreshold:
		return StatusStable
	case totalYes >= improvementThreshold:
		return StatusNeedsImprovement
	default:
		return StatusAtRisk
	}
}

// Valid reports whether s is one of the three statuses.
func (s Status) Valid() bool {
	return s == StatusStable || s == StatusNeedsImprovement || s == StatusAtRisk
}

// English returns the status in English for documents without a Japanese font.
func (s Status) English() string {
	switch s {
	case StatusStable:
		return "Stable"
	case StatusNeedsImprovement:
		return "Needs Improvement"
	case StatusAtRisk:
		return "At Risk"
	}
	return string(s)
}

// Scores holds the number of yes answers per category.
type Scores struct {
	Finance      int `json:"finance"`
	Patients     int `json:"patients"`
	Staff        int `json:"staff"`
	Satisfaction int `json:"satisfaction"`
}

// Of returns the count for category c.
func (s Scores) Of(c Category) int {
	switch c {
	case Finance:
		return s.Finance
	case Patients:
		return s.Patients
	case Staff:
		return s.Staff
	case Satisfaction:
		return s.Satisfaction
	}
	return 0
}

func (s *Scores) set(c Category, n int) {
	switch c {
	case Finance:
		s.Finance = n
	case Patients:
		s.Patients = n
	case Staff:
		s.Staff = n
	case Satisfaction:
		s.Satisfaction = n
	}
}

// Total sums the four category counts.
func (s Scores) Total() int {
	return s.Finance + s.Patients + s.Staff + s.Satisfaction
}

// Result is a scored questionnaire. It is never mutated after creation.
type Result struct {
	Categories Scores `json:"categories"`
	TotalYes   int    `json:"totalYes"`
	Status     Status `json:"status"`
}

// Calculate scores an answer set. Only explicit yes answers count; no and
// unset count zero. Completeness is checked by Submission.Validate.
func Calculate(a AnswerSet) Result {
	var scores Scores
	for _, c := range Categories {
		first := c.FirstQuestion()
		n := 0
		for q := first; q < first+QuestionsPerCategory; q++ {
			if a.Get(q) == Yes {
				n++
			}
		}
		scores.set(c, n)
	}
	total := scores.Total()
	return Result{
		Categories: scores,
		TotalYes:   total,
		Status:     StatusFor(total),
	}
}

var ErrInconsistentResult = errors.New("inconsistent result")

// Check verifies a result supplied from outside is one Calculate could have
// produced.
func (r Result) Check() error {
	for _, c := range Categories {
		if n := r.Categories.Of(c); n < 0 || n > MaxCategoryScore {
			return fmt.Errorf("%w: %s score %d out of range", ErrInconsistentResult, c, n)
		}
	}
	if r.TotalYes != r.Categories.Total() {
		return fmt.Errorf("%w: totalYes %d does not match category sum %d",
			ErrInconsistentResult, r.TotalYes, r.Categories.Total())
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInconsistentResult, r.Status)
	}
	if want := StatusFor(r.TotalYes); r.Status != want {
		return fmt.Errorf("%w: status %q, want %q", ErrInconsistentResult, r.Status, want)
	}
	return nil
}

// Evaluation is the per-category label used in exports. It is a different
// scale from Status.
type Evaluation string

const (
	EvaluationExcellent        Evaluation = "優良"
	EvaluationGood             Evaluation = "良好"
	EvaluationNeedsImprovement Evaluation = "要改善"
	EvaluationCaution          Evaluation = "要注意"
)

// Evaluate labels a category score.
func Evaluate(score int) Evaluation {
	switch {
	case score >= 4:
		return EvaluationExcellent
	case score >= 3:
		return EvaluationGood
	case score >= 2:
		return EvaluationNeedsImprovement
	default:
		return EvaluationCaution
	}
}

func (e Evaluation) Text() Text {
	switch e {
	case EvaluationExcellent:
		return Text{JA: string(e), EN: "Excellent"}
	case EvaluationGood:
		return Text{JA: string(e), EN: "Good"}
	case EvaluationNeedsImprovement:
		return Text{JA: string(e), EN: "Needs Improvement"}
	}
	return Text{JA: string(e), EN: "Caution"}
}
