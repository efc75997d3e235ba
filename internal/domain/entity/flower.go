package entity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FlowerInfo описание вида из энциклопедии.
// Отсутствующие поля ответа остаются пустыми строками.
type FlowerInfo struct {
	PageID       string `json:"page_id"`
	Title        string `json:"title"`
	Extract      string `json:"extract"`
	ThumbnailURL string `json:"thumbnail_url"`
	Missing      bool   `json:"missing"`
}

// Identification итог распознавания одного фото.
type Identification struct {
	Label      string     `json:"label"`
	Title      string     `json:"title"`
	Confidence float32    `json:"confidence"`
	Info       FlowerInfo `json:"info"`
	Described  bool       `json:"described"` // описание получено из энциклопедии
}

// NewIdentification собирает результат по метке классификатора.
func NewIdentification(c Classification) *Identification {
	return &Identification{
		Label:      c.Label,
		Title:      DisplayTitle(c.Label),
		Confidence: c.Confidence,
	}
}

// DisplayTitle делает заглавной первую букву каждого слова метки.
func DisplayTitle(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	return cases.Title(language.English).String(label)
}
