package domain

import (
	"context"
	"time"
)

// QuestionType identifica o tipo de uma pergunta da sondagem.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
	QuestionRating         QuestionType = "rating"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionCheckbox       QuestionType = "checkbox"
)

// Valores canónicos das respostas de perguntas yes_no.
const (
	AnswerYes = "Sim"
	AnswerNo  = "Não"
)

// CheckboxSeparator separa os ids de opção no valor de uma resposta checkbox.
const CheckboxSeparator = ","

// ValidQuestionType valida o tipo recebido num payload de criação/atualização.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionMultipleChoice, QuestionText, QuestionRating, QuestionYesNo, QuestionCheckbox:
		return true
	}
	return false
}

// QuestionOption é uma opção de resposta de perguntas de escolha (multiple_choice/checkbox).
type QuestionOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Question é uma pergunta da sondagem. Os campos Options e Min/MaxRating
// só são relevantes para os tipos de escolha e rating, respetivamente.
type Question struct {
	ID          string           `json:"id"`
	Type        QuestionType     `json:"type"`
	Text        string           `json:"text"`
	Required    bool             `json:"required"`
	Highlighted bool             `json:"highlighted"`
	Options     []QuestionOption `json:"options,omitempty"`
	MinRating   int              `json:"min_rating,omitempty"`
	MaxRating   int              `json:"max_rating,omitempty"`
	Order       int              `json:"order"`
}

// QuestionInput é o payload de pergunta num create/update de sondagem.
// Os ids de pergunta e opção são SEMPRE regenerados ao persistir: ids antigos
// deixam de ser válidos quando as perguntas de uma sondagem são substituídas.
type QuestionInput struct {
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	Required    *bool        `json:"required,omitempty"` // ausente ⇒ true
	Highlighted bool         `json:"highlighted"`
	Options     []struct {
		Text string `json:"text"`
	} `json:"options,omitempty"`
	MinRating int `json:"min_rating,omitempty"`
	MaxRating int `json:"max_rating,omitempty"`
}

// Survey representa uma sondagem: metadados, perguntas ordenadas e flags de publicação.
type Survey struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Questions     []Question `json:"questions"`
	IsPublished   bool       `json:"is_published"`
	IsFeatured    bool       `json:"is_featured"`
	EndDate       string     `json:"end_date,omitempty"`
	ResponseCount int        `json:"response_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SurveyView é a projeção de Survey devolvida pela API, anotada com o nome
// do dono e, quando há um utilizador autenticado, se este já respondeu.
type SurveyView struct {
	Survey
	OwnerName        string `json:"owner_name,omitempty"`
	UserHasResponded bool   `json:"user_has_responded"`
}

// SurveyCreate é o payload de criação de sondagem.
type SurveyCreate struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Questions   []QuestionInput `json:"questions"`
	IsFeatured  bool            `json:"is_featured"`
	EndDate     string          `json:"end_date,omitempty"`
}

// SurveyUpdate é o payload de atualização parcial de sondagem.
type SurveyUpdate struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Questions   *[]QuestionInput `json:"questions,omitempty"`
	IsPublished *bool            `json:"is_published,omitempty"`
	IsFeatured  *bool            `json:"is_featured,omitempty"`
}

// SurveyFilter define os parâmetros de busca da listagem de sondagens.
type SurveyFilter struct {
	Featured  *bool
	Published *bool
	OwnerID   string
}

// SurveyRepository define o contrato de persistência para sondagens.
type SurveyRepository interface {
	Save(ctx context.Context, survey Survey) (Survey, error)
	FindByID(ctx context.Context, id string) (Survey, error)
	FindAll(ctx context.Context, filter SurveyFilter) ([]Survey, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Survey, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	// IncrementResponseCount soma 1 ao contador da sondagem. Escrita separada
	// da inserção da resposta; sem transação, o contador pode divergir
	// ocasionalmente do total real armazenado.
	IncrementResponseCount(ctx context.Context, id string) error
}
