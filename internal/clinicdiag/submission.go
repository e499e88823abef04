package clinicdiag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Japanese formats the date as 2025年3月1日.
func (d Date) Japanese() string {
	return fmt.Sprintf("%d年%d月%d日", d.Year, d.Month, d.Day)
}

// English formats the date as 3/1/2025.
func (d Date) English() string {
	return fmt.Sprintf("%d/%d/%d", d.Month, d.Day, d.Year)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", a full RFC 3339 timestamp, "" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClinicInfo identifies who answered the questionnaire.
type ClinicInfo struct {
	ClinicName     string `json:"clinicName"`
	RespondentName string `json:"respondentName"`
	Email          string `json:"email"`
	Date           Date   `json:"date"`
}

// Missing lists the wire names of empty required fields.
func (c ClinicInfo) Missing() []string {
	var fields []string
	if strings.TrimSpace(c.ClinicName) == "" {
		fields = append(fields, "clinicName")
	}
	if strings.TrimSpace(c.RespondentName) == "" {
		fields = append(fields, "respondentName")
	}
	if strings.TrimSpace(c.Email) == "" {
		fields = append(fields, "email")
	}
	return fields
}

var ErrIncomplete = errors.New("submission incomplete")

// ValidationError lists every missing clinic field and unanswered question.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrIncomplete, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrIncomplete }

// Submission is what the respondent sends.
type Submission struct {
	ClinicInfo ClinicInfo `json:"clinicInfo"`
	Answers    AnswerSet  `json:"answers"`
}

// Validate fails unless every clinic field is filled and every question is
// explicitly answered yes or no.
func (s Submission) Validate() error {
	fields := append(s.ClinicInfo.Missing(), s.Answers.Unanswered()...)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Normalize trims clinic fields and defaults the date to now's calendar day
// in now's location.
func (s Submission) Normalize(now time.Time) Submission {
	s.ClinicInfo.ClinicName = strings.TrimSpace(s.ClinicInfo.ClinicName)
	s.ClinicInfo.RespondentName = strings.TrimSpace(s.ClinicInfo.RespondentName)
	s.ClinicInfo.Email = strings.TrimSpace(s.ClinicInfo.Email)
	if s.ClinicInfo.Date.IsZero() {
		s.ClinicInfo.Date = DateOf(now)
	}
	return s
}

// Record is a persisted submission with its result. Records are insert-only.
type Record struct {
	ID         string     `json:"id"`
	ClinicInfo ClinicInfo `json:"clinicInfo"`
	Answers    AnswerSet  `json:"answers"`
	Results    Result     `json:"results"`
	CreatedAt  time.Time  `json:"createdAt"`
}
