package clinicdiag

// Lang selects the language of a Text.
type Lang string

const (
	LangJA Lang = "ja"
	LangEN Lang = "en"
)

// Text is a fixed message in Japanese and English.
type Text struct {
	JA string `json:"ja"`
	EN string `json:"en"`
}

func (t Text) In(l Lang) string {
	if l == LangEN {
		return t.EN
	}
	return t.JA
}

// adviceThreshold is the category score below which advice is given.
const adviceThreshold = 3

// Advice is one advisory message. Category is empty for the all-good message.
type Advice struct {
	Category Category `json:"category,omitempty"`
	Text     Text     `json:"text"`
}

var categoryAdvice = map[Category]Text{
	Finance: {
		JA: "【財務管理】毎月の収支を正確に把握し、3ヶ月先の資金計画を立てましょう。税理士などの専門家と定期的に相談することをお勧めします。",
		EN: "[Financial Management] Track monthly income and expenses accurately, and create a financial plan for the next 3 months. We recommend consulting with a tax accountant regularly.",
	},
	Patients: {
		JA: "【患者数・売上】新規患者とリピーターの比率分析、リコール率の向上に取り組みましょう。自由診療の提案方法も見直すと良いでしょう。",
		EN: "[Patient Numbers & Sales] Analyze the ratio of new patients to repeat patients, and work on improving recall rates. It would also be good to review how you propose elective treatments.",
	},
	Staff: {
		JA: "【スタッフ管理】給与体系の見直しと教育研修の充実を図りましょう。労務トラブルの対応マニュアルも整備すると安心です。",
		EN: "[Staff Management] Review the salary system and enhance educational training. It is also reassuring to prepare a manual for dealing with labor issues.",
	},
	Satisfaction: {
		JA: "【患者満足度】口コミ対策と院内環境の整備を優先し、定期的な患者アンケートを実施して改善に活かしましょう。",
		EN: "[Patient Satisfaction] Prioritize review management and clinic environment improvements, and conduct regular patient surveys to make improvements.",
	},
}

var allGoodAdvice = Text{
	JA: "全てのカテゴリで良好な結果です。現状を維持しながら、さらなる向上を目指しましょう。",
	EN: "Good results in all categories. Maintain the current status while aiming for further improvement.",
}

// SelectAdvice returns the advisory messages for a result: one per category
// scoring below 3, in category order, or a single all-good message.
func SelectAdvice(r Result) []Advice {
	var out []Advice
	for _, c := range Categories {
		if r.Categories.Of(c) < adviceThreshold {
			out = append(out, Advice{Category: c, Text: categoryAdvice[c]})
		}
	}
	if len(out) == 0 {
		out = append(out, Advice{Text: allGoodAdvice})
	}
	return out
}

type summary struct {
	headline, detail Text
}

var summaries = map[Status]summary{
	StatusStable: {
		headline: Text{
			JA: "経営は安定しています！今の体制を維持しながら改善を進めましょう。",
			EN: "Management is stable. Keep improving while maintaining the current structure.",
		},
		detail: Text{
			JA: "現在の良好な経営状態を維持するために、定期的な経営状況の確認を続けてください。新しい取り組みや技術の導入も積極的に検討し、さらなる成長を目指しましょう。",
			EN: "Keep reviewing the management situation regularly to maintain it. Actively consider new initiatives and technologies to grow further.",
		},
	},
	StatusNeedsImprovement: {
		headline: Text{
			JA: "改善点がいくつかあります。弱い部分を強化しましょう。",
			EN: "There are several points to improve. Strengthen the weak areas.",
		},
		detail: Text{
			JA: "ある程度の経営基盤はできていますが、いくつかの分野で改善が必要です。特にスコアの低い分野から優先的に取り組み、バランスの取れた経営を目指しましょう。",
			EN: "A management foundation is in place, but some areas need improvement. Start with the lowest-scoring areas and aim for balanced management.",
		},
	},
	StatusAtRisk: {
		headline: Text{
			JA: "経営にリスクあり！早めに対策を講じることをおすすめします。",
			EN: "Management is at risk. We recommend taking measures early.",
		},
		detail: Text{
			JA: "現在の経営状況には改善すべき点が多くあります。まずは財務状況を正確に把握し、スタッフとの情報共有を徹底しましょう。専門家へのコンサルティング依頼も検討してください。",
			EN: "There are many points to improve in the current management situation. First grasp the financial situation accurately and share information thoroughly with staff. Consider consulting an expert.",
		},
	},
}

// Summary returns the headline and the detailed advice shown for a status.
// Unknown statuses get the at-risk wording.
func Summary(s Status) (headline, detail Text) {
	sm, ok := summaries[s]
	if !ok {
		sm = summaries[StatusAtRisk]
	}
	return sm.headline, sm.detail
}
