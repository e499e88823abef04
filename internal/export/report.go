package export

import (
	"fmt"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
)

// Report is the content of a structured document, already localized.
type Report struct {
	Lang      clinicdiag.Lang
	Title     string
	CreatedAt time.Time

	ClinicHeading string
	ClinicLines   []string

	SummaryHeading string
	Status         clinicdiag.Status
	StatusLine     string
	Headline       string
	TotalLine      string

	ScoresHeading string
	Columns       [3]string
	Rows          []Row

	AdviceHeading string
	Advice        []string

	ProfileHeading string
	ProfileLines   []string
	Footer         string
}

type Row struct {
	Category   clinicdiag.Category
	Label      string
	Score      int
	Max        int
	Evaluation string
}

func (r Row) ScoreText() string {
	return fmt.Sprintf("%d/%d", r.Score, r.Max)
}

type reportLabels struct {
	title, clinic, clinicName, respondent, email, date string
	summary, rating, total                             string
	scores                                             string
	columns                                            [3]string
	advice, company                                    string
}

var labels = map[clinicdiag.Lang]reportLabels{
	clinicdiag.LangJA: {
		title:      "歯科医院経営診断結果",
		clinic:     "医院情報",
		clinicName: "医院名: ",
		respondent: "回答者: ",
		email:      "メール: ",
		date:       "診断日: ",
		summary:    "診断結果概要",
		rating:     "総合評価: ",
		total:      "全%d問中 %d問 が「はい」",
		scores:     "カテゴリ別スコア",
		columns:    [3]string{"カテゴリ", "スコア", "評価"},
		advice:     "改善提案",
		company:    "会社情報",
	},
	clinicdiag.LangEN: {
		title:      "Dental Clinic Management Diagnosis",
		clinic:     "Clinic Information",
		clinicName: "Clinic: ",
		respondent: "Respondent: ",
		email:      "Email: ",
		date:       "Date: ",
		summary:    "Diagnosis Summary",
		rating:     "Overall Rating: ",
		total:      "%[2]d out of %[1]d questions answered \"Yes\"",
		scores:     "Category Scores",
		columns:    [3]string{"Category", "Score", "Evaluation"},
		advice:     "Improvement Advice",
		company:    "Company Information",
	},
}

// NewReport derives a report from a record. Scores, advice and evaluations
// come from the diagnosis engine; nothing is recomputed here.
func NewReport(rec clinicdiag.Record, p profile.Profile, lang clinicdiag.Lang) Report {
	if lang != clinicdiag.LangEN {
		lang = clinicdiag.LangJA
	}
	l := labels[lang]
	res := rec.Results
	info := rec.ClinicInfo

	date := info.Date.Japanese()
	status := string(res.Status)
	if lang == clinicdiag.LangEN {
		date = info.Date.English()
		status = res.Status.English()
	}
	if info.Date.IsZero() {
		date = "-"
	}
	headline, _ := clinicdiag.Summary(res.Status)

	r := Report{
		Lang:      lang,
		Title:     l.title,
		CreatedAt: rec.CreatedAt,

		ClinicHeading: l.clinic,
		ClinicLines: []string{
			l.clinicName + info.ClinicName,
			l.respondent + info.RespondentName,
			l.email + info.Email,
			l.date + date,
		},

		SummaryHeading: l.summary,
		Status:         res.Status,
		StatusLine:     l.rating + status,
		Headline:       headline.In(lang),
		TotalLine:      fmt.Sprintf(l.total, clinicdiag.QuestionCount, res.TotalYes),

		ScoresHeading: l.scores,
		Columns:       l.columns,

		AdviceHeading:  l.advice,
		ProfileHeading: l.company,
		ProfileLines:   p.Lines(),
		Footer:         p.Footer,
	}

	for _, c := range clinicdiag.Categories {
		score := res.Categories.Of(c)
		r.Rows = append(r.Rows, Row{
			Category:   c,
			Label:      c.Label().In(lang),
			Score:      score,
			Max:        clinicdiag.MaxCategoryScore,
			Evaluation: clinicdiag.Evaluate(score).Text().In(lang),
		})
	}
	for _, a := range clinicdiag.SelectAdvice(res) {
		r.Advice = append(r.Advice, a.Text.In(lang))
	}
	return r
}
