package entities

import (
	"gorm.io/gorm"
)

const (
	GatewayStatusDisconnected = "disconnected"
	GatewayStatusConnecting   = "connecting"
	GatewayStatusConnected    = "connected"
	GatewayStatusError        = "error"
)

const (
	GatewayTypeCustomers = "customers"
	GatewayTypeProviders = "providers"
	GatewayTypeEmployees = "employees"
)

// Gateway stores one configured connection to an external WhatsApp gateway deployment
type Gateway struct {
	gorm.Model
	Name      string `json:"name" gorm:"type:varchar(255);not null"`
	Type      string `json:"type" gorm:"type:varchar(20);not null;default:'customers'"`
	ServerURL string `json:"server_url" gorm:"type:varchar(500);not null"`
	APIKey    string `json:"-" gorm:"type:varchar(255);not null"`

	Status       string `json:"status" gorm:"type:varchar(20);default:'disconnected'"`
	ErrorMessage string `json:"error_message" gorm:"type:text"`
	PhoneNumber  string `json:"phone_number" gorm:"type:varchar(20)"`
	SessionID    string `json:"session_id" gorm:"type:varchar(50)"`

	IsActive  bool `json:"is_active" gorm:"default:true"`
	IsDefault bool `json:"is_default" gorm:"default:false"`

	MessagesSent     int `json:"messages_sent" gorm:"default:0"`
	MessagesReceived int `json:"messages_received" gorm:"default:0"`
}
