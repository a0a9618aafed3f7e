package model

import "time"

// CompletionRecord is the archived accounting row for one completion.
type CompletionRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SessionID        string    `gorm:"size:36;not null;index" json:"session_id"`
	Provider         string    `gorm:"size:16;not null" json:"provider"`
	Model            string    `gorm:"size:128;not null" json:"model"`
	PromptType       string    `gorm:"size:64;not null" json:"prompt_type"`
	Reply            string    `gorm:"type:text;not null" json:"reply"`
	PromptTokens     int       `gorm:"not null" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"not null" json:"completion_tokens"`
	TotalTokens      int       `gorm:"not null" json:"total_tokens"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}
