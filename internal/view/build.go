package view

import (
	"fmt"
	"strconv"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
)

// DefaultWidth is the capture width of the result view in CSS pixels.
const DefaultWidth = 800

type palette struct {
	text, bar, light string
}

// Live colours of the result screen. Panels are translucent and secondary
// text is pale gray, which is what PrintContrast corrects for.
var categoryPalette = map[clinicdiag.Category]palette{
	clinicdiag.Finance:      {text: "#4f46e5", bar: "rgba(99, 102, 241, 0.8)", light: "rgba(224, 231, 255, 0.6)"},
	clinicdiag.Patients:     {text: "#d97706", bar: "rgba(245, 158, 11, 0.8)", light: "rgba(254, 243, 199, 0.6)"},
	clinicdiag.Staff:        {text: "#059669", bar: "rgba(16, 185, 129, 0.8)", light: "rgba(209, 250, 229, 0.6)"},
	clinicdiag.Satisfaction: {text: "#e11d48", bar: "rgba(244, 63, 94, 0.8)", light: "rgba(255, 228, 230, 0.6)"},
}

var statusPalette = map[clinicdiag.Status]palette{
	clinicdiag.StatusStable:           {text: "#059669", bar: "#10b981", light: "rgba(236, 253, 245, 0.7)"},
	clinicdiag.StatusNeedsImprovement: {text: "#d97706", bar: "#f59e0b", light: "rgba(255, 251, 235, 0.7)"},
	clinicdiag.StatusAtRisk:           {text: "#e11d48", bar: "#f43f5e", light: "rgba(255, 241, 242, 0.7)"},
}

var categoryBlurb = map[clinicdiag.Category]string{
	clinicdiag.Finance:      "財務状況の把握と計画的な経営",
	clinicdiag.Patients:     "患者数の管理と売上向上の取り組み",
	clinicdiag.Staff:        "スタッフの育成と労務管理",
	clinicdiag.Satisfaction: "患者体験の向上と口コミ対策",
}

const mutedText = "#9ca3af"

// Build lays out the result screen for a record.
func Build(rec clinicdiag.Record, p profile.Profile) *View {
	res := rec.Results
	sp := statusPalette[res.Status]
	headline, detail := clinicdiag.Summary(res.Status)

	root := el("div", Style{
		"background-color": "rgba(255, 255, 255, 0.85)",
		"color":            mutedText,
		"padding":          "32px",
	}, "",
		el("h2", Style{"color": "#374151", "font-size": "28px", "text-align": "center"}, "診断結果"),
		el("div", Style{"margin-bottom": "24px"}, "",
			el("p", Style{"color": mutedText}, "医院名: "+rec.ClinicInfo.ClinicName),
			el("p", Style{"color": mutedText}, "回答者: "+rec.ClinicInfo.RespondentName),
			el("p", Style{"color": mutedText}, "診断日: "+rec.ClinicInfo.Date.Japanese()),
		).withID("clinic"),
		el("div", Style{
			"background-color": sp.light,
			"border":           "1px solid " + sp.bar,
			"border-radius":    "8px",
			"padding":          "24px",
		}, "",
			el("div", Style{"color": sp.text, "font-size": "24px", "font-weight": "bold", "text-align": "center"}, string(res.Status)).withID("status-label"),
			el("p", Style{"color": "#6b7280", "font-weight": "500"}, headline.JA),
			el("p", Style{"color": mutedText}, detail.JA),
			el("p", Style{"color": "#6b7280", "text-align": "center", "opacity": "0.9"},
				fmt.Sprintf("全%d問中 %d問 が「はい」", clinicdiag.QuestionCount, res.TotalYes)).withID("total"),
		).withID("status"),
		scoreSection(res),
		evaluationTable(res),
		adviceSection(res),
		profileFooter(p),
	).withID("result")

	return &View{
		Title: "歯科医院経営診断結果 - " + rec.ClinicInfo.ClinicName,
		Width: DefaultWidth,
		Root:  root,
	}
}

func scoreSection(res clinicdiag.Result) *Element {
	section := el("div", Style{"margin-top": "32px"}, "",
		el("h3", Style{"color": "#374151", "border-bottom": "1px solid #e5e7eb"}, "カテゴリ別スコア"),
	).withID("scores")

	for _, c := range clinicdiag.Categories {
		pal := categoryPalette[c]
		score := res.Categories.Of(c)
		pct := strconv.Itoa(score*100/clinicdiag.MaxCategoryScore) + "%"
		card := el("div", Style{"background-color": pal.light, "padding": "16px", "margin-bottom": "12px"}, "",
			el("span", Style{"color": pal.text, "font-weight": "600"}, c.Label().JA),
			el("span", Style{"color": "#6b7280", "float": "right", "font-weight": "bold"},
				fmt.Sprintf("%d/%d", score, clinicdiag.MaxCategoryScore)),
			el("div", Style{"background-color": "rgba(243, 244, 246, 0.7)", "height": "12px", "border-radius": "9999px"}, "",
				el("div", Style{"background-color": pal.bar, "height": "12px", "width": pct, "border-radius": "9999px"}, "").withClass("bar"),
			),
			el("p", Style{"color": mutedText, "font-size": "14px"}, categoryBlurb[c]),
		).withID("score-" + string(c)).withClass("category")
		section.Children = append(section.Children, card)
	}
	return section
}

func evaluationTable(res clinicdiag.Result) *Element {
	cell := Style{"border": "1px solid #d1d5db", "padding": "8px", "color": "#6b7280"}
	head := Style{"border": "1px solid #d1d5db", "padding": "8px", "background-color": "rgba(229, 231, 235, 0.6)", "color": "#374151"}

	body := el("tbody", nil, "")
	for _, c := range clinicdiag.Categories {
		score := res.Categories.Of(c)
		body.Children = append(body.Children, el("tr", nil, "",
			el("td", cell, c.Label().JA),
			el("td", cell, fmt.Sprintf("%d/%d", score, clinicdiag.MaxCategoryScore)),
			el("td", cell, string(clinicdiag.Evaluate(score))),
		).withID("row-"+string(c)))
	}
	return el("table", Style{"width": "100%", "margin-top": "32px"}, "",
		el("thead", nil, "",
			el("tr", nil, "",
				el("th", head, "カテゴリ"),
				el("th", head, "スコア"),
				el("th", head, "評価"),
			),
		),
		body,
	).withID("evaluation")
}

func adviceSection(res clinicdiag.Result) *Element {
	section := el("div", Style{"margin-top": "32px"}, "",
		el("h3", Style{"color": "#374151", "border-bottom": "1px solid #e5e7eb"}, "改善提案"),
	).withID("advice")
	for _, a := range clinicdiag.SelectAdvice(res) {
		bg := "rgba(243, 244, 246, 0.6)"
		if pal, ok := categoryPalette[a.Category]; ok {
			bg = pal.light
		}
		section.Children = append(section.Children,
			el("p", Style{"background-color": bg, "color": "#4b5563", "padding": "12px"}, a.Text.JA).withClass("advice-item"))
	}
	return section
}

func profileFooter(p profile.Profile) *Element {
	footer := el("div", Style{"margin-top": "40px", "font-size": "12px", "color": mutedText}, "").withID("profile")
	for _, line := range p.Lines() {
		footer.Children = append(footer.Children, el("p", Style{"color": mutedText}, line))
	}
	if p.Footer != "" {
		footer.Children = append(footer.Children, el("p", Style{"color": mutedText, "text-align": "center"}, p.Footer))
	}
	return footer
}
