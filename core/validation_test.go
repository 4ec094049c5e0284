package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChatMessage(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Minute)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		msg     *ChatMessage
		wantErr error
	}{
		{
			name: "valid user message",
			msg: &ChatMessage{
				SessionID: "s1",
				Role:      RoleUser,
				Content:   "Explain chunking",
				CreatedAt: validTime,
			},
		},
		{
			name: "empty assistant content is allowed",
			msg: &ChatMessage{
				SessionID: "s1",
				Role:      RoleAssistant,
				CreatedAt: validTime,
			},
		},
		{
			name:    "nil message",
			msg:     nil,
			wantErr: ErrInvalidChatMessage,
		},
		{
			name: "missing session",
			msg: &ChatMessage{
				Role:      RoleUser,
				Content:   "hi",
				CreatedAt: validTime,
			},
			wantErr: ErrEmptyID,
		},
		{
			name: "invalid role",
			msg: &ChatMessage{
				SessionID: "s1",
				Role:      Role(99),
				Content:   "hi",
				CreatedAt: validTime,
			},
			wantErr: ErrInvalidRole,
		},
		{
			name: "future timestamp",
			msg: &ChatMessage{
				SessionID: "s1",
				Role:      RoleUser,
				Content:   "hi",
				CreatedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatMessage(tt.msg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChatMessage() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChatMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{name: "valid", doc: &Document{ID: "doc-a.md", Text: "hello"}},
		{name: "nil", doc: nil, wantErr: ErrInvalidDocument},
		{name: "missing id", doc: &Document{Text: "hello"}, wantErr: ErrEmptyID},
		{name: "blank text", doc: &Document{ID: "doc-a.md", Text: " \n\t"}, wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateDocument() unexpected error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Release notes"); err != nil {
		t.Errorf("ValidateTitle() unexpected error = %v", err)
	}
	if err := ValidateTitle("   "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("ValidateTitle() error = %v, want %v", err, ErrEmptyTitle)
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Now().Add(-time.Second)) {
		t.Error("past timestamp should be valid")
	}
	if IsValidTimestamp(time.Now().Add(time.Hour)) {
		t.Error("future timestamp should be invalid")
	}
}
