package analyticsservice

import (
	"math"
	"strconv"
	"strings"

	"impar/internal/domain"
)

// Motor de agregação: funções puras sobre (perguntas, respostas).
// Duas visões sobre os mesmos dados:
//   - admin/dono: contagens cruas e a lista completa de valores, texto incluído;
//   - pública: contagens/percentagens, com o conteúdo de texto retido.

// OptionCount é a contagem de uma opção de escolha, com o texto da opção.
type OptionCount struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// QuestionResult agrega uma pergunta. Os campos preenchidos dependem do tipo
// da pergunta e da visão (admin ou pública); ponteiros permitem serializar
// zeros sem emitir campos irrelevantes para os demais tipos.
type QuestionResult struct {
	Type            domain.QuestionType    `json:"type"`
	Responses       []string               `json:"responses,omitempty"` // visão admin: valores crus
	TotalAnswers    *int                   `json:"total_answers,omitempty"`
	OptionBreakdown map[string]OptionCount `json:"option_breakdown,omitempty"`
	Average         *float64               `json:"average,omitempty"`
	Distribution    map[string]int         `json:"distribution,omitempty"`
	YesCount        *int                   `json:"yes_count,omitempty"`
	NoCount         *int                   `json:"no_count,omitempty"`
	YesPercentage   *float64               `json:"yes_percentage,omitempty"`
	NoPercentage    *float64               `json:"no_percentage,omitempty"`
	ResponseCount   *int                   `json:"response_count,omitempty"` // texto na visão pública: só contagem
}

// SurveyAnalytics é o resultado agregado de uma sondagem inteira.
type SurveyAnalytics struct {
	TotalResponses int                       `json:"total_responses"`
	Questions      map[string]QuestionResult `json:"questions"`
}

// GlobalQuestionResult é a visão "os meus resultados": percentagens e médias
// recalculadas sobre TODAS as respostas da sondagem, independentemente de quem pergunta.
type GlobalQuestionResult struct {
	Type        domain.QuestionType `json:"type"`
	Percentages map[string]float64  `json:"percentages,omitempty"`
	Average     *float64            `json:"average,omitempty"`
	TotalVotes  *int                `json:"total_votes,omitempty"`
}

// answersFor coleta, na ordem de submissão, os valores respondidos a uma pergunta.
func answersFor(questionID string, responses []domain.SurveyAnswer) []string {
	values := []string{}
	for _, resp := range responses {
		for _, ans := range resp.Answers {
			if ans.QuestionID == questionID {
				values = append(values, ans.Value)
			}
		}
	}
	return values
}

// roundOne arredonda para uma casa decimal.
func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// percentage devolve count/total*100 com uma casa decimal; 0 quando total é 0.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundOne(float64(count) / float64(total) * 100)
}

// ratingStats calcula média (uma casa decimal) e histograma [min, max].
// Valores não inteiros são ignorados silenciosamente, nunca rejeitados.
func ratingStats(question domain.Question, values []string) (float64, map[string]int, int) {
	minRating, maxRating := question.MinRating, question.MaxRating
	if maxRating <= 0 {
		maxRating = 5
	}
	if minRating <= 0 {
		minRating = 1
	}

	distribution := map[string]int{}
	for i := minRating; i <= maxRating; i++ {
		distribution[strconv.Itoa(i)] = 0
	}

	sum, count := 0, 0
	for _, v := range values {
		rating, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		sum += rating
		count++
		if rating >= minRating && rating <= maxRating {
			distribution[strconv.Itoa(rating)]++
		}
	}

	average := 0.0
	if count > 0 {
		average = roundOne(float64(sum) / float64(count))
	}
	return average, distribution, count
}

// optionBreakdown monta as contagens por opção (zeradas para opções sem votos).
// Valores que não correspondem a nenhuma opção conhecida são ignorados; para
// checkbox o valor é separado por vírgula e cada id referenciado conta um voto.
func optionBreakdown(question domain.Question, values []string) map[string]OptionCount {
	breakdown := map[string]OptionCount{}
	for _, opt := range question.Options {
		breakdown[opt.ID] = OptionCount{Text: opt.Text}
	}

	for _, v := range values {
		selected := []string{v}
		if question.Type == domain.QuestionCheckbox {
			selected = strings.Split(v, domain.CheckboxSeparator)
		}
		for _, optID := range selected {
			if entry, ok := breakdown[optID]; ok {
				entry.Count++
				breakdown[optID] = entry
			}
		}
	}
	return breakdown
}

// BuildAnalytics calcula a visão admin/dono: lista crua de valores por pergunta
// mais contagens de opções e estatísticas de rating.
func BuildAnalytics(questions []domain.Question, responses []domain.SurveyAnswer) SurveyAnalytics {
	analytics := SurveyAnalytics{
		TotalResponses: len(responses),
		Questions:      map[string]QuestionResult{},
	}

	for _, question := range questions {
		values := answersFor(question.ID, responses)
		result := QuestionResult{Type: question.Type, Responses: values}

		switch question.Type {
		case domain.QuestionMultipleChoice:
			result.OptionBreakdown = optionBreakdown(question, values)
		case domain.QuestionRating:
			average, distribution, _ := ratingStats(question, values)
			result.Average = &average
			result.Distribution = distribution
		}

		analytics.Questions[question.ID] = result
	}

	return analytics
}

// BuildPublicResults calcula a visão pública: percentagens, médias e contagens,
// sem nunca expor o conteúdo de respostas de texto.
func BuildPublicResults(questions []domain.Question, responses []domain.SurveyAnswer) SurveyAnalytics {
	analytics := SurveyAnalytics{
		TotalResponses: len(responses),
		Questions:      map[string]QuestionResult{},
	}

	for _, question := range questions {
		values := answersFor(question.ID, responses)
		totalAnswers := len(values)
		result := QuestionResult{Type: question.Type, TotalAnswers: &totalAnswers}

		switch question.Type {
		case domain.QuestionMultipleChoice, domain.QuestionCheckbox:
			result.OptionBreakdown = optionBreakdown(question, values)

		case domain.QuestionYesNo:
			yes, no := 0, 0
			for _, v := range values {
				switch v {
				case domain.AnswerYes:
					yes++
				case domain.AnswerNo:
					no++
				}
			}
			yesPct := percentage(yes, totalAnswers)
			noPct := percentage(no, totalAnswers)
			result.YesCount = &yes
			result.NoCount = &no
			result.YesPercentage = &yesPct
			result.NoPercentage = &noPct

		case domain.QuestionRating:
			average, distribution, _ := ratingStats(question, values)
			result.Average = &average
			result.Distribution = distribution

		case domain.QuestionText:
			// Conteúdo de texto retido na visão pública: apenas a contagem
			count := totalAnswers
			result.ResponseCount = &count
		}

		analytics.Questions[question.ID] = result
	}

	return analytics
}

// BuildGlobalResults calcula os agregados globais usados na visão "as minhas
// respostas": para cada pergunta de escolha/yes_no, a percentagem de cada valor
// sobre o total de submissões; para rating, a média e o total de votos válidos.
func BuildGlobalResults(questions []domain.Question, responses []domain.SurveyAnswer) map[string]GlobalQuestionResult {
	totalResponses := len(responses)
	results := map[string]GlobalQuestionResult{}

	for _, question := range questions {
		switch question.Type {
		case domain.QuestionMultipleChoice, domain.QuestionYesNo:
			counts := map[string]int{}
			for _, v := range answersFor(question.ID, responses) {
				counts[v]++
			}
			percentages := map[string]float64{}
			for value, count := range counts {
				percentages[value] = percentage(count, totalResponses)
			}
			results[question.ID] = GlobalQuestionResult{
				Type:        question.Type,
				Percentages: percentages,
			}

		case domain.QuestionRating:
			average, _, totalVotes := ratingStats(question, answersFor(question.ID, responses))
			results[question.ID] = GlobalQuestionResult{
				Type:       question.Type,
				Average:    &average,
				TotalVotes: &totalVotes,
			}
		}
	}

	return results
}
