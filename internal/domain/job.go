package domain

import (
	"strings"
	"time"
)

// Job types.
const (
	JobTypeFullTime   = "FT"
	JobTypePartTime   = "PT"
	JobTypeInternship = "INT"
	JobTypeContract   = "CON"
)

// Job categories.
const (
	CategoryIT              = "IT"
	CategoryMarketing       = "MKT"
	CategoryFinance         = "FIN"
	CategorySales           = "SLS"
	CategoryHR              = "HR"
	CategoryEngineering     = "ENG"
	CategoryEducation       = "EDU"
	CategoryHealthcare      = "HLT"
	CategoryMedia           = "MED"
	CategoryLaw             = "LAW"
	CategoryConstruction    = "CST"
	CategoryCustomerService = "CS"
	CategoryArchitecture    = "ARC"
	CategoryAccounting      = "ACC"
	CategoryOther           = "OTH"
)

// JobPost is a job listing created by a company account. Listings are hidden
// from students until an admin approves them.
type JobPost struct {
	JobID         string     `json:"id" dynamodbav:"job_id"`
	CompanyUserID string     `json:"company_user_id" dynamodbav:"company_user_id"`
	Title         string     `json:"title" dynamodbav:"title"`
	Description   string     `json:"description" dynamodbav:"description"`
	Requirements  string     `json:"requirements" dynamodbav:"requirements"`
	Location      string     `json:"location" dynamodbav:"location"`
	Category      string     `json:"category" dynamodbav:"category"`
	JobType       string     `json:"job_type" dynamodbav:"job_type"`
	Deadline      time.Time  `json:"deadline" dynamodbav:"deadline"`
	Salary        *float64   `json:"salary,omitempty" dynamodbav:"salary"`
	Currency      string     `json:"currency" dynamodbav:"currency"` // ISO 4217, e.g. "USD"
	ImageKey      *string    `json:"image_key,omitempty" dynamodbav:"image_key"`
	IsApproved    bool       `json:"is_approved" dynamodbav:"is_approved"`
	Enable        int        `json:"enable" dynamodbav:"enable"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	DatePosted    time.Time  `json:"date_posted" dynamodbav:"date_posted"`
	UpdatedAt     time.Time  `json:"updated" dynamodbav:"updated_at"`
	// Lowercased title+description+location, kept alongside the item so
	// listing search can run as a single contains() filter.
	SearchBlob string `json:"-" dynamodbav:"search_blob"`
}

// RefreshSearchBlob recomputes the search blob; call after changing any of
// the searchable fields and before persisting.
func (j *JobPost) RefreshSearchBlob() {
	j.SearchBlob = strings.ToLower(j.Title + " " + j.Description + " " + j.Location)
}

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Application is a student's submission for a job. One per (job, applicant).
type Application struct {
	ApplicationID   string    `json:"id" dynamodbav:"application_id"`
	JobID           string    `json:"job_id" dynamodbav:"job_id"`
	ApplicantUserID string    `json:"applicant_user_id" dynamodbav:"applicant_user_id"`
	CoverLetter     string    `json:"cover_letter" dynamodbav:"cover_letter"`
	CVKey           *string   `json:"cv_key,omitempty" dynamodbav:"cv_key"`
	TranscriptKey   *string   `json:"transcript_key,omitempty" dynamodbav:"transcript_key"`
	CertificateKey  *string   `json:"certificate_key,omitempty" dynamodbav:"certificate_key"`
	OtherKey        *string   `json:"other_key,omitempty" dynamodbav:"other_key"`
	Status          string    `json:"status" dynamodbav:"status"`
	DateApplied     time.Time `json:"date_applied" dynamodbav:"date_applied"`
	UpdatedAt       time.Time `json:"updated" dynamodbav:"updated_at"`

	Job *JobPost `json:"job,omitempty" dynamodbav:"-"`
}

type CreateJobRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"required"`
	Requirements string   `json:"requirements" validate:"required"`
	Location     string   `json:"location" validate:"required,max=200"`
	Category     string   `json:"category" validate:"required,oneof=IT MKT FIN SLS HR ENG EDU HLT MED LAW CST CS ARC ACC OTH"`
	JobType      string   `json:"job_type" validate:"required,oneof=FT PT INT CON"`
	Deadline     string   `json:"deadline" validate:"required"` // YYYY-MM-DD
	Salary       *float64 `json:"salary" validate:"omitempty,gt=0"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
	// Base64-encoded image for the posting (optional).
	Image *string `json:"image"`
}

type UpdateJobRequest struct {
	Title        *string  `json:"title" validate:"omitempty,max=200"`
	Description  *string  `json:"description"`
	Requirements *string  `json:"requirements"`
	Location     *string  `json:"location" validate:"omitempty,max=200"`
	Category     *string  `json:"category" validate:"omitempty,oneof=IT MKT FIN SLS HR ENG EDU HLT MED LAW CST CS ARC ACC OTH"`
	JobType      *string  `json:"job_type" validate:"omitempty,oneof=FT PT INT CON"`
	Deadline     *string  `json:"deadline"`
	Salary       *float64 `json:"salary" validate:"omitempty,gt=0"`
	Currency     *string  `json:"currency" validate:"omitempty,len=3"`
}

// JobFilter narrows job listings; zero values mean no restriction.
type JobFilter struct {
	Search       string // matches title, description or location
	Category     string
	JobType      string
	ApprovedOnly bool
}

type ApplyRequest struct {
	CoverLetter string  `json:"cover_letter" validate:"required"`
	CV          *string `json:"cv"` // base64 document uploads
	Transcript  *string `json:"transcript"`
	Certificate *string `json:"certificate"`
	Other       *string `json:"other"`
}

// BoardStats feeds the public landing page.
type BoardStats struct {
	ApprovedJobs      int `json:"approved_jobs"`
	VerifiedCompanies int `json:"verified_companies"`
	Students          int `json:"students"`
}
