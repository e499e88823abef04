package clinicdiag_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

func validSubmission() clinicdiag.Submission {
	return clinicdiag.Submission{
		ClinicInfo: clinicdiag.ClinicInfo{
			ClinicName:     "さくら歯科クリニック",
			RespondentName: "山田 太郎",
			Email:          "info@example.com",
		},
		Answers: clinicdiag.AllAnswers(true),
	}
}

func TestValidate(t *testing.T) {
	if err := validSubmission().Validate(); err != nil {
		t.Fatalf("valid submission: %v", err)
	}

	t.Run("unset answer blocks submission", func(t *testing.T) {
		s := validSubmission()
		s.Answers.Clear(7)
		err := s.Validate()
		if !errors.Is(err, clinicdiag.ErrIncomplete) {
			t.Fatalf("err = %v, want ErrIncomplete", err)
		}
		var ve *clinicdiag.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err is not a ValidationError: %T", err)
		}
		if !reflect.DeepEqual(ve.Fields, []string{"q7"}) {
			t.Errorf("fields = %v, want [q7]", ve.Fields)
		}
	})

	t.Run("false is a valid answer", func(t *testing.T) {
		s := validSubmission()
		s.Answers = clinicdiag.AllAnswers(false)
		if err := s.Validate(); err != nil {
			t.Errorf("all-false submission rejected: %v", err)
		}
	})

	t.Run("blank clinic fields", func(t *testing.T) {
		s := validSubmission()
		s.ClinicInfo.ClinicName = "  "
		s.ClinicInfo.Email = ""
		var ve *clinicdiag.ValidationError
		if !errors.As(s.Validate(), &ve) {
			t.Fatal("expected ValidationError")
		}
		if !reflect.DeepEqual(ve.Fields, []string{"clinicName", "email"}) {
			t.Errorf("fields = %v", ve.Fields)
		}
	})
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := validSubmission()
	s.ClinicInfo.ClinicName = "  さくら歯科  "

	got := s.Normalize(now)
	if got.ClinicInfo.ClinicName != "さくら歯科" {
		t.Errorf("clinic name = %q", got.ClinicInfo.ClinicName)
	}
	if got.ClinicInfo.Date.String() != "2025-03-01" {
		t.Errorf("date = %q, want 2025-03-01", got.ClinicInfo.Date)
	}

	s.ClinicInfo.Date = clinicdiag.Date{Year: 2024, Month: 12, Day: 24}
	if got := s.Normalize(now).ClinicInfo.Date.String(); got != "2024-12-24" {
		t.Errorf("explicit date overwritten: %q", got)
	}
}

func TestAnswerSetJSON(t *testing.T) {
	var a clinicdiag.AnswerSet
	a.Set(1, true)
	a.Set(2, false)

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"q1":true,"q2":false,"q3":null`) {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded clinicdiag.AnswerSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != a {
		t.Errorf("decoded set differs")
	}
	if decoded.Get(3) != clinicdiag.Unset {
		t.Errorf("q3 = %v, want unset", decoded.Get(3))
	}

	bad := []string{
		`{"q21": true}`,
		`{"q01": true}`,
		`{"finance": true}`,
		`{"q1": "yes"}`,
		`[true]`,
	}
	for _, in := range bad {
		if err := json.Unmarshal([]byte(in), &decoded); err == nil {
			t.Errorf("Unmarshal(%s) accepted invalid input", in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var info clinicdiag.ClinicInfo
	if err := json.Unmarshal([]byte(`{"clinicName":"A","date":"2025-04-05"}`), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Date.Japanese() != "2025年4月5日" {
		t.Errorf("japanese = %q", info.Date.Japanese())
	}

	if err := json.Unmarshal([]byte(`{"date":"2025-04-05T09:30:00Z"}`), &info); err != nil {
		t.Fatalf("timestamp date: %v", err)
	}
	if info.Date.String() != "2025-04-05" {
		t.Errorf("date = %q", info.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"05/04/2025"}`), &info); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestQuestions(t *testing.T) {
	qs := clinicdiag.Questions()
	if len(qs) != clinicdiag.QuestionCount {
		t.Fatalf("got %d questions", len(qs))
	}
	counts := map[clinicdiag.Category]int{}
	for i, q := range qs {
		if q.ID != clinicdiag.QuestionID(i+1) {
			t.Errorf("question %d id = %q", i+1, q.ID)
		}
		if q.Text == "" {
			t.Errorf("question %s has no text", q.ID)
		}
		counts[q.Category]++
	}
	for _, c := range clinicdiag.Categories {
		if counts[c] != clinicdiag.QuestionsPerCategory {
			t.Errorf("%s has %d questions", c, counts[c])
		}
	}
	if qs[10].Category != clinicdiag.Staff {
		t.Errorf("q11 category = %s, want staff", qs[10].Category)
	}
}
