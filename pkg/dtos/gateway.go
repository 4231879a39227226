package dtos

// DTO for gateway registration
type GatewayCreateDTO struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=customers providers employees"`
	ServerURL string `json:"server_url" binding:"required,url"`
	APIKey    string `json:"api_key" binding:"required"`
	IsActive  *bool  `json:"is_active"`
	IsDefault bool   `json:"is_default"`
}

type GatewayUpdateDTO struct {
	Name      *string `json:"name"`
	Type      *string `json:"type" binding:"omitempty,oneof=customers providers employees"`
	ServerURL *string `json:"server_url" binding:"omitempty,url"`
	APIKey    *string `json:"api_key"`
	IsActive  *bool   `json:"is_active"`
	IsDefault *bool   `json:"is_default"`
}

type GatewayStatusDTO struct {
	Status       string `json:"status"`
	SessionID    string `json:"session_id,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type DisconnectDTO struct {
	Confirm bool `json:"confirm"`
}

type SendTextDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

type SendImageDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	ImageURL    string `json:"image_url" binding:"required,url"`
	Caption     string `json:"caption"`
}

type SendFileDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	FileURL     string `json:"file_url" binding:"required,url"`
	Filename    string `json:"filename" binding:"required"`
	Caption     string `json:"caption"`
}

type MarkReadDTO struct {
	ChatID     string   `json:"chat_id" binding:"required"`
	MessageIDs []string `json:"message_ids"`
}
