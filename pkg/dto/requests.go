package dto

import (
	"strings"
	"time"

	"shareit/pkg/apperrors"
)

type UserCreate struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (r UserCreate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.Validationf("name must not be blank")
	}
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.Validationf("email must not be blank")
	}
	return nil
}

type UserUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

func (r UserUpdate) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperrors.Validationf("name must not be blank")
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		return apperrors.Validationf("email must not be blank")
	}
	return nil
}

type ItemCreate struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Available   *bool  `json:"available" binding:"required"`
	RequestID   *int64 `json:"requestId"`
}

func (r ItemCreate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.Validationf("name must not be blank")
	}
	if strings.TrimSpace(r.Description) == "" {
		return apperrors.Validationf("description must not be blank")
	}
	if r.Available == nil {
		return apperrors.Validationf("available must be set")
	}
	return nil
}

type ItemUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

func (r ItemUpdate) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperrors.Validationf("name must not be blank")
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return apperrors.Validationf("description must not be blank")
	}
	return nil
}

type BookingCreate struct {
	ItemID *int64    `json:"itemId" binding:"required"`
	Start  *DateTime `json:"start" binding:"required"`
	End    *DateTime `json:"end" binding:"required"`
}

// Validate checks the booking window against now. The server re-checks
// start < end as part of the booking workflow.
func (r BookingCreate) Validate(now time.Time) error {
	if r.ItemID == nil {
		return apperrors.Validationf("itemId must be set")
	}
	if r.Start == nil || r.End == nil {
		return apperrors.Validationf("start and end must be set")
	}
	if r.Start.Before(now.Add(-time.Second)) {
		return apperrors.Validationf("start must not be in the past")
	}
	if !r.End.After(now) {
		return apperrors.Validationf("end must be in the future")
	}
	if !r.Start.Before(r.End.Time) {
		return apperrors.Validationf("start must be before end")
	}
	return nil
}

type CommentCreate struct {
	Text string `json:"text" binding:"required"`
}

func (r CommentCreate) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return apperrors.Validationf("text must not be blank")
	}
	return nil
}

type ItemRequestCreate struct {
	Description string `json:"description" binding:"required"`
}

func (r ItemRequestCreate) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return apperrors.Validationf("description must not be blank")
	}
	return nil
}
