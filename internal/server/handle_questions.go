package server

import (
	"net/http"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

type CategoryInfo struct {
	ID        clinicdiag.Category `json:"id"`
	Label     string              `json:"label"`
	LabelEN   string              `json:"labelEn"`
	Questions []string            `json:"questions"`
}

type QuestionsResponse struct {
	Categories []CategoryInfo        `json:"categories"`
	Questions  []clinicdiag.Question `json:"questions"`
}

func handleQuestions() http.HandlerFunc {
	resp := QuestionsResponse{Questions: clinicdiag.Questions()}
	for _, c := range clinicdiag.Categories {
		info := CategoryInfo{ID: c, Label: c.Label().JA, LabelEN: c.Label().EN}
		for _, q := range resp.Questions {
			if q.Category == c {
				info.Questions = append(info.Questions, q.ID)
			}
		}
		resp.Categories = append(resp.Categories, info)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
