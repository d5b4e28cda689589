package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"400"`
	Category string `json:"category" example:"VALIDATION_ERROR"`
	Message  string `json:"message" example:"A sondagem ainda não está publicada."`
}

// MessageResponse é a estrutura padronizada para respostas de sucesso sem corpo útil.
type MessageResponse struct {
	Message string `json:"message"`
}
