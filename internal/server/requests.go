package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ApplyRequest is the public application submission payload.
type ApplyRequest struct {
	VacancyID      uuid.UUID `json:"vacancy_id" validate:"required"`
	Name           string    `json:"name" validate:"required,min=2,max=200"`
	Email          string    `json:"email" validate:"required,email"`
	Phone          *string   `json:"phone,omitempty"`
	Title          string    `json:"title" validate:"max=200"`
	Years          int       `json:"years" validate:"min=0,max=60"`
	Availability   string    `json:"availability" validate:"max=100"`
	ExpectedSalary int64     `json:"expected_salary" validate:"min=0"`
}

func (r *ApplyRequest) Validate() error { return validate.Struct(r) }

// StatusUpdateRequest changes an application's recruiter-facing status.
type StatusUpdateRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

func (r *StatusUpdateRequest) Validate() error { return validate.Struct(r) }

// FeedbackRequest carries the optional candidate feedback fields. At
// least one must be present; that rule lives in the tracking service.
type FeedbackRequest struct {
	Notes    *string `json:"notes,omitempty"`
	Rating   *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Feedback *string `json:"feedback,omitempty"`
}

func (r *FeedbackRequest) Validate() error { return validate.Struct(r) }

// CampaignRequest defines a new sourcing campaign.
type CampaignRequest struct {
	VacancyID uuid.UUID      `json:"vacancy_id" validate:"required"`
	Name      string         `json:"name" validate:"max=200"`
	Sources   []string       `json:"sources"`
	Filters   map[string]any `json:"filters,omitempty"`
	Schedule  string         `json:"schedule" validate:"max=50"`
	AutoRun   bool           `json:"auto_run"`
}

func (r *CampaignRequest) Validate() error { return validate.Struct(r) }

// VacancyRequest creates or updates a vacancy.
type VacancyRequest struct {
	Title         string     `json:"title" validate:"required,min=2,max=200"`
	RecruiterID   *uuid.UUID `json:"recruiter_id,omitempty"`
	RequiredYears int        `json:"required_years" validate:"min=0,max=60"`
	SalaryMin     *int64     `json:"salary_min,omitempty" validate:"omitempty,min=0"`
	SalaryMax     *int64     `json:"salary_max,omitempty" validate:"omitempty,min=0"`
}

func (r *VacancyRequest) Validate() error { return validate.Struct(r) }

// StageRequest moves a candidate to a new pipeline stage for a vacancy.
type StageRequest struct {
	VacancyID uuid.UUID `json:"vacancy_id" validate:"required"`
	Stage     string    `json:"stage" validate:"required,max=100"`
}

func (r *StageRequest) Validate() error { return validate.Struct(r) }

// ActivityRequest appends one candidate activity entry.
type ActivityRequest struct {
	Type        string         `json:"type" validate:"required,max=50"`
	Description string         `json:"description" validate:"max=500"`
	RelatedID   *uuid.UUID     `json:"related_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (r *ActivityRequest) Validate() error { return validate.Struct(r) }
