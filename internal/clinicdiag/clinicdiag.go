// Package clinicdiag defines the diagnosis domain: the 20-question
// questionnaire, scoring, status classification and advice selection.
// It has no external dependencies.
package clinicdiag

// QuestionCount is the number of yes/no questions in a questionnaire.
const QuestionCount = 20

// QuestionsPerCategory is the number of questions in each category.
const QuestionsPerCategory = 5

// MaxCategoryScore is the highest count a single category can reach.
const MaxCategoryScore = QuestionsPerCategory

type Category string

const (
	Finance      Category = "finance"
	Patients     Category = "patients"
	Staff        Category = "staff"
	Satisfaction Category = "satisfaction"
)

// Categories lists every category in report order.
var Categories = []Category{Finance, Patients, Staff, Satisfaction}

var categoryLabels = map[Category]Text{
	Finance:      {JA: "財務管理", EN: "Financial Management"},
	Patients:     {JA: "患者数・売上", EN: "Patient Numbers & Sales"},
	Staff:        {JA: "スタッフ管理", EN: "Staff Management"},
	Satisfaction: {JA: "患者満足度", EN: "Patient Satisfaction"},
}

// Label returns the display name of the category.
func (c Category) Label() Text {
	return categoryLabels[c]
}

// FirstQuestion returns the 1-based number of the category's first question.
func (c Category) FirstQuestion() int {
	for i, cat := range Categories {
		if cat == c {
			return i*QuestionsPerCategory + 1
		}
	}
	return 0
}

// CategoryOf returns the category question q (1-based) belongs to.
func CategoryOf(q int) (Category, bool) {
	if q < 1 || q > QuestionCount {
		return "", false
	}
	return Categories[(q-1)/QuestionsPerCategory], true
}

type Question struct {
	ID       string   `json:"id"`
	Number   int      `json:"number"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

var questionTexts = [QuestionCount]string{
	"毎月の収支を把握していますか？",
	"年間の経費削減目標を設定していますか？",
	"保険診療と自費診療の割合を把握していますか？",
	"固定費と変動費を区別して管理していますか？",
	"税理士と定期的に打ち合わせをしていますか？",

	"新患数を毎月集計していますか？",
	"再来院率を把握していますか？",
	"患者一人あたりの平均診療単価を把握していますか？",
	"診療圏内の競合状況を把握していますか？",
	"ウェブサイトやSNSでの集患対策を行っていますか？",

	"スタッフとの定期的な面談を実施していますか？",
	"スタッフの教育・研修計画がありますか？",
	"給与体系は明確ですか？",
	"スタッフの業務マニュアルはありますか？",
	"スタッフの離職率は低いですか？",

	"患者アンケートを定期的に実施していますか？",
	"待ち時間の短縮に取り組んでいますか？",
	"治療内容の説明は十分に行っていますか？",
	"院内の清潔感を保つ工夫をしていますか？",
	"患者からの紹介が多いですか？",
}

// Questions returns the questionnaire in display order.
func Questions() []Question {
	qs := make([]Question, QuestionCount)
	for i := range qs {
		cat, _ := CategoryOf(i + 1)
		qs[i] = Question{
			ID:       QuestionID(i + 1),
			Number:   i + 1,
			Category: cat,
			Text:     questionTexts[i],
		}
	}
	return qs
}
