package db

import (
	"time"

	"github.com/google/uuid"
)

// Vacancy status values.
const (
	VacancyOpen      = "Abierta"
	VacancyInProcess = "En Proceso"
	VacancyFilled    = "Cubierta"
	VacancyClosed    = "Cerrada"
)

// Application status values, in pipeline order.
const (
	StatusNueva           = "Nueva"
	StatusEnRevision      = "En Revisión"
	StatusPreseleccionado = "Preseleccionado"
	StatusEntrevista      = "Entrevista"
	StatusOferta          = "Oferta"
	StatusContratado      = "Contratado"
	StatusRechazado       = "Rechazado"
)

// StatusMessages maps an application status to the human-readable message
// shown on the public tracking portal and in candidate notifications.
var StatusMessages = map[string]string{
	StatusNueva:           "Tu postulación fue recibida y está en cola de revisión.",
	StatusEnRevision:      "Tu postulación está siendo revisada por el equipo de selección.",
	StatusPreseleccionado: "¡Fuiste preseleccionado! Pronto nos pondremos en contacto.",
	StatusEntrevista:      "Fuiste convocado a entrevista. Revisa tu correo para los detalles.",
	StatusOferta:          "¡Felicitaciones! Tienes una oferta pendiente de respuesta.",
	StatusContratado:      "Proceso finalizado: fuiste contratado. ¡Bienvenido!",
	StatusRechazado:       "El proceso continuó con otros candidatos. Gracias por participar.",
}

// Candidate defaults.
const (
	DefaultStage  = "POSTULACIÓN"
	DefaultSource = "Portal"
)

// Activity types recorded in the candidate activity log.
const (
	ActivityLogin            = "LOGIN"
	ActivityViewJob          = "VIEW_JOB"
	ActivityApply            = "APPLY"
	ActivitySaveJob          = "SAVE_JOB"
	ActivityStartApplication = "START_APPLICATION"
	ActivityAbandon          = "ABANDON_APPLICATION"
)

// Notification recipient types.
const (
	UserTypeCandidate = "candidato"
	UserTypeRecruiter = "reclutador"
	UserTypeAdmin     = "admin"
)

// Sourcing campaign states.
const (
	CampaignActive = "active"
	CampaignPaused = "paused"
)

// Vacancy is a job requisition opened by a recruiter.
type Vacancy struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	RecruiterID      *uuid.UUID `json:"recruiter_id,omitempty"`
	RequiredYears    int        `json:"required_years"`
	SalaryMin        *int64     `json:"salary_min,omitempty"`
	SalaryMax        *int64     `json:"salary_max,omitempty"`
	Status           string     `json:"status"`
	Applications     int        `json:"applications"`
	OpenedAt         time.Time  `json:"opened_at"`
	EstimatedCloseAt *time.Time `json:"estimated_close_at,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Candidate is the internal tracking record for one person in the pipeline.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"`
	ExpectedSalary  *int64    `json:"expected_salary,omitempty"`
	Stage           string    `json:"stage"`
	Source          string    `json:"source"`
	TechnicalRating *int      `json:"technical_rating,omitempty"`
	Outcome         *string   `json:"outcome,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StageInterval is one row of the append-only stage history. At most one
// interval per candidate is open (EndedAt == nil) at a time.
type StageInterval struct {
	ID          uuid.UUID  `json:"id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	VacancyID   uuid.UUID  `json:"vacancy_id"`
	Stage       string     `json:"stage"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// Application is a candidate's submission against one vacancy. The match
// score is computed once at creation and never recomputed on edits.
type Application struct {
	ID                uuid.UUID  `json:"id"`
	VacancyID         uuid.UUID  `json:"vacancy_id"`
	CandidateID       *uuid.UUID `json:"candidate_id,omitempty"`
	AccountID         *uuid.UUID `json:"account_id,omitempty"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             *string    `json:"phone,omitempty"`
	MatchScore        int        `json:"match_score"`
	Status            string     `json:"status"`
	Notes             *string    `json:"notes,omitempty"`
	Rating            *int       `json:"rating,omitempty"`
	Feedback          *string    `json:"feedback,omitempty"`
	LinkSent          bool       `json:"link_sent"`
	ViewedByRecruiter bool       `json:"viewed_by_recruiter"`
	CandidateViewedAt *time.Time `json:"candidate_viewed_at,omitempty"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TrackingLink is the token-gated, expiring public view into one
// application. Looked up only by token; must be unexpired to resolve.
type TrackingLink struct {
	ID            uuid.UUID  `json:"id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	Token         string     `json:"token"`
	Email         string     `json:"email"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Views         int        `json:"views_count"`
	LastViewedAt  *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Notification is addressed to a (user type, user id) pair.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserType  string         `json:"user_type"`
	UserID    uuid.UUID      `json:"user_id"`
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	LinkURL   *string        `json:"link_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActivityEntry is an append-only candidate activity log row.
type ActivityEntry struct {
	ID          uuid.UUID      `json:"id"`
	CandidateID uuid.UUID      `json:"candidate_id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	RelatedID   *uuid.UUID     `json:"related_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SourcingCampaign owns a vacancy, a set of enabled source channels and
// filter criteria. NextRunAt drives the durable scheduler; a nil value
// means the campaign is not scheduled.
type SourcingCampaign struct {
	ID              uuid.UUID      `json:"id"`
	VacancyID       uuid.UUID      `json:"vacancy_id"`
	Name            string         `json:"name"`
	Sources         []string       `json:"sources"`
	Filters         map[string]any `json:"filters,omitempty"`
	Schedule        string         `json:"schedule,omitempty"`
	AutoRun         bool           `json:"auto_run"`
	Status          string         `json:"status"`
	CandidatesFound int            `json:"candidates_found"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt       *time.Time     `json:"next_run_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SourcedCandidate is an externally discovered profile persisted by a
// campaign run, unique per (campaign, email).
type SourcedCandidate struct {
	ID        uuid.UUID      `json:"id"`
	CampaignID uuid.UUID     `json:"campaign_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Title     *string        `json:"title,omitempty"`
	Source    string         `json:"source"`
	Score     int            `json:"score"`
	Analysis  string         `json:"analysis"`
	Profile   map[string]any `json:"profile,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// CampaignRun is one execution-log row with aggregate stats.
type CampaignRun struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Found      int       `json:"found"`
	Qualified  int       `json:"qualified"`
	Stored     int       `json:"stored"`
	DurationMS int64     `json:"duration_ms"`
	Error      *string   `json:"error,omitempty"`
	RanAt      time.Time `json:"ran_at"`
}

// OutboxTask is a durable auxiliary write awaiting dispatch.
type OutboxTask struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	Payload       []byte     `json:"payload"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     *string    `json:"last_error,omitempty"`
	DoneAt        *time.Time `json:"done_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
