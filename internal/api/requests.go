// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package api

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. go-playground/validator caches
// struct metadata, so a single instance is the intended usage.
var validate = validator.New()

// SendMessageRequest is the request body for POST /messages.
type SendMessageRequest struct {
	SenderID       string   `json:"sender_id" validate:"required,min=1,max=128"`
	ConversationID string   `json:"conversation_id" validate:"required,min=1,max=128"`
	Body           string   `json:"body" validate:"max=8192"`
	MediaIDs       []string `json:"media_ids" validate:"omitempty,max=10,dive,uuid4"`
}

// ListMessagesRequest holds the validated query parameters for GET
// /conversations/{id}/messages.
type ListMessagesRequest struct {
	Limit int `validate:"min=0,max=500"`
}

// SetTypingRequest is the request body for POST /conversations/{id}/typing.
type SetTypingRequest struct {
	UserID string `json:"user_id" validate:"required,min=1,max=128"`
	Typing bool   `json:"typing"`
}

// StartUploadRequest is the request body for POST /uploads.
type StartUploadRequest struct {
	OwnerID   string `json:"owner_id" validate:"required,min=1,max=128"`
	Filename  string `json:"filename" validate:"required,min=1,max=255"`
	TotalSize int64  `json:"total_size" validate:"required,min=1"`
	ChunkSize int64  `json:"chunk_size" validate:"min=0"`
}

// CompleteUploadRequest is the request body for POST /uploads/{id}/complete.
type CompleteUploadRequest struct {
	DeclaredMime      string `json:"declared_mime" validate:"omitempty,max=255"`
	Compress          bool   `json:"compress"`
	GenerateThumbnail bool   `json:"generate_thumbnail"`
	MaxWidth          int    `json:"max_width" validate:"min=0,max=16384"`
	MaxHeight         int    `json:"max_height" validate:"min=0,max=16384"`
	Quality           int    `json:"quality" validate:"min=0,max=100"`
}

// IngestMediaRequest holds the validated parameters for POST /media. The
// raw bytes travel in the body; these fields arrive as query parameters.
type IngestMediaRequest struct {
	OwnerID           string `validate:"required,min=1,max=128"`
	DeclaredMime      string `validate:"omitempty,max=255"`
	Compress          bool
	GenerateThumbnail bool
}

// validateRequest runs validator tags over a request struct and returns a
// caller-friendly message listing the failed fields.
func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}
