package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a chat message in characters.
const MaxMessageLength = 4000

// ChatRequest is a submitted chat message (form field "msg").
type ChatRequest struct {
	Message string `json:"msg"`
}

// Validate trims the message and rejects empty or oversized input.
func (r *ChatRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if n := utf8.RuneCountInString(r.Message); n > MaxMessageLength {
		return fmt.Errorf("message too long: %d characters (max %d)", n, MaxMessageLength)
	}
	return nil
}
