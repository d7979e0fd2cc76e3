package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldIsApproved = "is_approved"
)

type Service interface {
	Create(ctx context.Context, companyUserID string, req domain.CreateJobRequest) (*domain.JobPost, error)
	Get(ctx context.Context, jobID, viewerID, viewerRole string) (*domain.JobPost, error)
	List(ctx context.Context, filter domain.JobFilter, limit int, cursor string) ([]domain.JobPost, string, error)
	ListMine(ctx context.Context, companyUserID string) ([]domain.JobPost, error)
	Update(ctx context.Context, jobID, userID string, req domain.UpdateJobRequest) (*domain.JobPost, error)
	Delete(ctx context.Context, jobID, userID, role string) error
	Approve(ctx context.Context, jobID string, approved bool) (*domain.JobPost, error)
	Stats(ctx context.Context) (*domain.BoardStats, error)

	Apply(ctx context.Context, jobID, applicantUserID string, req domain.ApplyRequest) (*domain.Application, error)
	ListApplications(ctx context.Context, userID, role string) ([]domain.Application, error)
	Decide(ctx context.Context, applicationID, companyUserID, status string) (*domain.Application, error)
}

type jobStore interface {
	Put(ctx context.Context, j *domain.JobPost) error
	Get(ctx context.Context, jobID string) (*domain.JobPost, error)
	Update(ctx context.Context, jobID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, jobID string) error
	ListByCompany(ctx context.Context, companyUserID string) ([]domain.JobPost, error)
	ScanPage(ctx context.Context, filter domain.JobFilter, limit int32, cursor string) ([]domain.JobPost, string, error)
	CountApproved(ctx context.Context) (int, error)
}

type applicationStore interface {
	Put(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, applicationID string) (*domain.Application, error)
	GetByJobAndApplicant(ctx context.Context, jobID, applicantUserID string) (*domain.Application, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Application, error)
	ListByApplicant(ctx context.Context, applicantUserID string) ([]domain.Application, error)
	SetStatus(ctx context.Context, applicationID, status string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	CountByRole(ctx context.Context, role, status string) (int, error)
}

type documentStore interface {
	Put(ctx context.Context, d *domain.Document) error
}

type objectStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
}

type notifier interface {
	Emit(ctx context.Context, e notification.Emission)
}

type service struct {
	jobs         jobStore
	applications applicationStore
	users        userStore
	documents    documentStore
	objects      objectStore
	notifier     notifier
}

type ServiceDeps struct {
	JobRepo         jobStore
	ApplicationRepo applicationStore
	UserRepo        userStore
	DocumentRepo    documentStore
	Objects         objectStore
	Notifier        notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		jobs:         deps.JobRepo,
		applications: deps.ApplicationRepo,
		users:        deps.UserRepo,
		documents:    deps.DocumentRepo,
		objects:      deps.Objects,
		notifier:     deps.Notifier,
	}
}

// Create posts a new listing. Only company accounts whose identity an admin
// has verified may post; the listing stays hidden until approved.
func (s *service) Create(ctx context.Context, companyUserID string, req domain.CreateJobRequest) (*domain.JobPost, error) {
	u, err := s.users.Get(ctx, companyUserID)
	if err != nil {
		return nil, err
	}
	if !u.IsCompany() {
		return nil, fmt.Errorf("only company accounts can post jobs: %w", domain.ErrForbidden)
	}
	if u.VerificationStatus != domain.VerificationVerified {
		return nil, fmt.Errorf("company account is not verified yet: %w", domain.ErrForbidden)
	}

	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("deadline must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	// Same convention as Apply: the date-only deadline parses to midnight,
	// so the deadline day itself still counts.
	if time.Now().After(deadline.Add(24 * time.Hour)) {
		return nil, fmt.Errorf("deadline is in the past: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	j := &domain.JobPost{
		JobID:         id.New(),
		CompanyUserID: companyUserID,
		Title:         req.Title,
		Description:   req.Description,
		Requirements:  req.Requirements,
		Location:      req.Location,
		Category:      req.Category,
		JobType:       req.JobType,
		Deadline:      deadline,
		Salary:        req.Salary,
		Currency:      req.Currency,
		IsApproved:    false,
		Enable:        1,
		DatePosted:    now,
		UpdatedAt:     now,
	}
	j.RefreshSearchBlob()

	if req.Image != nil && *req.Image != "" {
		key := fmt.Sprintf("jobs/%s/image.jpg", j.JobID)
		if _, err := s.objects.UploadBase64(ctx, key, *req.Image); err != nil {
			return nil, err
		}
		j.ImageKey = &key
	}

	if err := s.jobs.Put(ctx, j); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:  companyUserID,
		Type:    domain.NotifyJobPosted,
		Title:   "Job posted",
		Message: fmt.Sprintf("%q was posted and is awaiting admin approval.", j.Title),
		JobID:   &j.JobID,
	})
	return j, nil
}

// Get returns a listing. Unapproved or disabled listings are visible only to
// their owner and to admins.
func (s *service) Get(ctx context.Context, jobID, viewerID, viewerRole string) (*domain.JobPost, error) {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.IsApproved || j.Enable != 1 {
		if viewerID != j.CompanyUserID && viewerRole != domain.RoleAdmin {
			return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
		}
	}
	return j, nil
}

func (s *service) List(ctx context.Context, filter domain.JobFilter, limit int, cursor string) ([]domain.JobPost, string, error) {
	if limit < 1 {
		limit = 20
	}
	return s.jobs.ScanPage(ctx, filter, int32(limit), cursor)
}

func (s *service) ListMine(ctx context.Context, companyUserID string) ([]domain.JobPost, error) {
	return s.jobs.ListByCompany(ctx, companyUserID)
}

func (s *service) Update(ctx context.Context, jobID, userID string, req domain.UpdateJobRequest) (*domain.JobPost, error) {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.CompanyUserID != userID {
		return nil, fmt.Errorf("job belongs to another company: %w", domain.ErrForbidden)
	}

	if req.Title != nil {
		j.Title = *req.Title
	}
	if req.Description != nil {
		j.Description = *req.Description
	}
	if req.Requirements != nil {
		j.Requirements = *req.Requirements
	}
	if req.Location != nil {
		j.Location = *req.Location
	}
	if req.Category != nil {
		j.Category = *req.Category
	}
	if req.JobType != nil {
		j.JobType = *req.JobType
	}
	if req.Deadline != nil {
		deadline, err := time.Parse("2006-01-02", *req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("deadline must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		j.Deadline = deadline
	}
	if req.Salary != nil {
		j.Salary = req.Salary
	}
	if req.Currency != nil {
		j.Currency = *req.Currency
	}
	j.UpdatedAt = time.Now().UTC()
	j.RefreshSearchBlob()

	if err := s.jobs.Put(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *service) Delete(ctx context.Context, jobID, userID, role string) error {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.CompanyUserID != userID && role != domain.RoleAdmin {
		return fmt.Errorf("job belongs to another company: %w", domain.ErrForbidden)
	}
	return s.jobs.SoftDelete(ctx, jobID)
}

// Approve records an admin's decision on a listing and tells the company.
func (s *service) Approve(ctx context.Context, jobID string, approved bool) (*domain.JobPost, error) {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, jobID, map[string]interface{}{fieldIsApproved: approved}); err != nil {
		return nil, err
	}
	j.IsApproved = approved

	if approved {
		s.notifier.Emit(ctx, notification.Emission{
			UserID:  j.CompanyUserID,
			Type:    domain.NotifyJobApproved,
			Title:   "Job approved",
			Message: fmt.Sprintf("%q is now visible to students.", j.Title),
			JobID:   &j.JobID,
		})
	} else {
		s.notifier.Emit(ctx, notification.Emission{
			UserID:  j.CompanyUserID,
			Type:    domain.NotifyJobRejected,
			Title:   "Job rejected",
			Message: fmt.Sprintf("%q was rejected by an administrator.", j.Title),
			JobID:   &j.JobID,
		})
	}
	return j, nil
}

// Stats feeds the public landing page counters.
func (s *service) Stats(ctx context.Context) (*domain.BoardStats, error) {
	jobs, err := s.jobs.CountApproved(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.users.CountByRole(ctx, domain.RoleCompany, domain.VerificationVerified)
	if err != nil {
		return nil, err
	}
	students, err := s.users.CountByRole(ctx, domain.RoleStudent, "")
	if err != nil {
		return nil, err
	}
	return &domain.BoardStats{
		ApprovedJobs:      jobs,
		VerifiedCompanies: companies,
		Students:          students,
	}, nil
}

// Apply submits a student's application: one per (job, applicant), only for
// approved listings whose deadline has not passed.
func (s *service) Apply(ctx context.Context, jobID, applicantUserID string, req domain.ApplyRequest) (*domain.Application, error) {
	u, err := s.users.Get(ctx, applicantUserID)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleStudent {
		return nil, fmt.Errorf("only students can apply: %w", domain.ErrForbidden)
	}

	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.IsApproved || j.Enable != 1 {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	if time.Now().After(j.Deadline.Add(24 * time.Hour)) {
		return nil, fmt.Errorf("application deadline has passed: %w", domain.ErrBadRequest)
	}
	if _, err := s.applications.GetByJobAndApplicant(ctx, jobID, applicantUserID); err == nil {
		return nil, fmt.Errorf("already applied to this job: %w", domain.ErrConflict)
	}

	now := time.Now().UTC()
	a := &domain.Application{
		ApplicationID:   id.New(),
		JobID:           jobID,
		ApplicantUserID: applicantUserID,
		CoverLetter:     req.CoverLetter,
		Status:          domain.ApplicationPending,
		DateApplied:     now,
		UpdatedAt:       now,
	}

	uploads := []struct {
		data *string
		kind string
		dest **string
	}{
		{req.CV, domain.DocumentCV, &a.CVKey},
		{req.Transcript, domain.DocumentTranscript, &a.TranscriptKey},
		{req.Certificate, domain.DocumentCertificate, &a.CertificateKey},
		{req.Other, domain.DocumentOther, &a.OtherKey},
	}
	for _, up := range uploads {
		if up.data == nil || *up.data == "" {
			continue
		}
		key := fmt.Sprintf("applications/%s/%s.pdf", a.ApplicationID, up.kind)
		if _, err := s.objects.UploadBase64(ctx, key, *up.data); err != nil {
			return nil, err
		}
		*up.dest = &key
		s.recordDocument(ctx, applicantUserID, up.kind, key)
	}

	if err := s.applications.Put(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:        j.CompanyUserID,
		Type:          domain.NotifyApplicationSubmitted,
		Title:         "New application",
		Message:       fmt.Sprintf("%s %s applied to %q.", u.FirstName, u.LastName, j.Title),
		JobID:         &j.JobID,
		ApplicationID: &a.ApplicationID,
	})
	a.Job = j
	return a, nil
}

// ListApplications is role-aware: students see their own submissions,
// companies see applicants across all of their listings.
func (s *service) ListApplications(ctx context.Context, userID, role string) ([]domain.Application, error) {
	if role == domain.RoleCompany {
		jobs, err := s.jobs.ListByCompany(ctx, userID)
		if err != nil {
			return nil, err
		}
		var all []domain.Application
		for i := range jobs {
			apps, err := s.applications.ListByJob(ctx, jobs[i].JobID)
			if err != nil {
				return nil, err
			}
			for k := range apps {
				apps[k].Job = &jobs[i]
			}
			all = append(all, apps...)
		}
		return all, nil
	}

	apps, err := s.applications.ListByApplicant(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		j, err := s.jobs.Get(ctx, apps[i].JobID)
		if err != nil {
			slog.Warn("application references missing job", "application_id", apps[i].ApplicationID, "job_id", apps[i].JobID)
			continue
		}
		apps[i].Job = j
	}
	return apps, nil
}

// Decide records the company's accept/reject decision and tells the student.
func (s *service) Decide(ctx context.Context, applicationID, companyUserID, status string) (*domain.Application, error) {
	if status != domain.ApplicationAccepted && status != domain.ApplicationRejected {
		return nil, fmt.Errorf("status must be accepted or rejected: %w", domain.ErrBadRequest)
	}
	a, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	j, err := s.jobs.Get(ctx, a.JobID)
	if err != nil {
		return nil, err
	}
	if j.CompanyUserID != companyUserID {
		return nil, fmt.Errorf("application belongs to another company's job: %w", domain.ErrForbidden)
	}
	if a.Status != domain.ApplicationPending {
		return nil, fmt.Errorf("application already decided: %w", domain.ErrConflict)
	}
	if err := s.applications.SetStatus(ctx, applicationID, status); err != nil {
		return nil, err
	}
	a.Status = status
	a.Job = j

	s.notifier.Emit(ctx, notification.Emission{
		UserID:        a.ApplicantUserID,
		Type:          domain.NotifyApplicationDecided,
		Title:         "Application " + status,
		Message:       fmt.Sprintf("Your application to %q was %s.", j.Title, status),
		JobID:         &j.JobID,
		ApplicationID: &a.ApplicationID,
	})
	return a, nil
}

func (s *service) recordDocument(ctx context.Context, userID, kind, key string) {
	err := s.documents.Put(ctx, &domain.Document{
		DocumentID:  id.New(),
		OwnerUserID: userID,
		Kind:        kind,
		ObjectKey:   key,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to record document metadata", "user_id", userID, "kind", kind, "err", err)
	}
}
