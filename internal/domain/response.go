package domain

import (
	"context"
	"time"
)

// Answer é a resposta a uma única pergunta. O valor é interpretado segundo
// o tipo da pergunta: id de opção (multiple_choice), ids separados por
// vírgula (checkbox), inteiro em string (rating), "Sim"/"Não" (yes_no)
// ou texto livre (text).
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// SurveyAnswer é o conjunto de respostas submetido a uma sondagem.
// UserID vazio significa submissão anónima.
type SurveyAnswer struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"survey_id"`
	UserID      string    `json:"user_id,omitempty"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SurveyAnswerCreate é o payload de submissão de respostas.
type SurveyAnswerCreate struct {
	Answers []Answer `json:"answers"`
}

// ResponseRepository define o contrato de persistência para respostas.
type ResponseRepository interface {
	Save(ctx context.Context, answer SurveyAnswer) (SurveyAnswer, error)
	FindBySurvey(ctx context.Context, surveyID string) ([]SurveyAnswer, error)
	FindByUser(ctx context.Context, userID string) ([]SurveyAnswer, error)
	ExistsBySurveyAndUser(ctx context.Context, surveyID, userID string) (bool, error)
	CountBySurvey(ctx context.Context, surveyID string) (int, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
}
