// internal/models/answers.go
package models

import "sort"

// Question keys collected by the guided flow.
const (
	QuestionBudget  = "budget"
	QuestionBrand   = "brand"
	QuestionUsage   = "usage"
	QuestionCamera  = "camera"
	QuestionStorage = "storage"
)

// Question describes one step of the guided flow. Options is empty for free text.
type Question struct {
	Key      string   `json:"key"`
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// Questions is the guided flow in the order it is asked.
var Questions = []Question{
	{Key: QuestionBudget, Text: "¿Cuál es tu presupuesto máximo en COP?"},
	{Key: QuestionBrand, Text: "¿Tienes alguna marca preferida?", Optional: true},
	{Key: QuestionUsage, Text: "¿Para qué usarás principalmente el celular?",
		Options: []string{"Redes sociales", "Fotografía", "Juegos", "Trabajo/estudio", "Otro"}},
	{Key: QuestionCamera, Text: "¿Qué tan importante es la cámara?",
		Options: []string{"Poco", "Moderado", "Muy importante"}},
	{Key: QuestionStorage, Text: "¿Cuánto almacenamiento necesitas?",
		Options: []string{"64 GB o menos", "128 GB", "256 GB o más"}},
}

// AnswerSet maps question keys to raw answers. Treat it as immutable: use With
// to derive a new set.
type AnswerSet map[string]string

// NewAnswerSet copies src into a fresh AnswerSet.
func NewAnswerSet(src map[string]string) AnswerSet {
	out := make(AnswerSet, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// With returns a copy of the set with key set to value.
func (a AnswerSet) With(key, value string) AnswerSet {
	out := NewAnswerSet(a)
	out[key] = value
	return out
}

// Get returns the answer for key and whether it was given.
func (a AnswerSet) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Keys returns the answered keys in sorted order.
func (a AnswerSet) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
