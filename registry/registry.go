package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/databases"
	"github.com/parkpass/parking-pass-api/models"
)

// Submission carries the applicant-supplied fields of a new application.
// Every field is required.
type Submission struct {
	VehicleMake         string `json:"vehicleMake"`
	VehicleModel        string `json:"vehicleModel"`
	VehicleYear         int    `json:"vehicleYear"`
	LicensePlate        string `json:"licensePlate"`
	VehicleColor        string `json:"vehicleColor"`
	Reason              string `json:"reason"`
	IDDocument          string `json:"idDocument"`
	VehicleRegistration string `json:"vehicleRegistration"`
}

// EventSink receives application lifecycle events. Implemented by the
// websocket hub; a nil sink disables events.
type EventSink interface {
	ApplicationSubmitted(app models.Application)
	ApplicationReviewed(app models.Application)
}

// Mailer sends the applicant a notification once a decision is made.
// Delivery is best-effort and never affects the outcome of Review.
type Mailer interface {
	SendDecision(app models.Application)
}

// Service owns application records and their status transitions, enforcing
// role-based access on every operation rather than relying on whichever
// surface called it.
type Service struct {
	Apps   databases.ApplicationDatabase
	Events EventSink
	Mailer Mailer

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates an application registry over the given store. Events
// and Mailer may be nil.
func NewService(apps databases.ApplicationDatabase, events EventSink, mailer Mailer) *Service {
	return &Service{Apps: apps, Events: events, Mailer: mailer, now: time.Now}
}

// Submit validates the fields, builds a pending application with a snapshot
// of the submitting principal and persists it. Only role "user" may submit.
func (s *Service) Submit(ctx context.Context, principal models.Principal, fields Submission) (models.Application, error) {
	if principal.Role != models.RoleUser {
		return models.Application{}, ErrUnauthorized
	}
	if err := fields.validate(); err != nil {
		return models.Application{}, err
	}

	app := models.Application{
		ID: primitive.NewObjectID(),
		Details: models.ApplicationDetails{
			UserID:              principal.ID,
			UserName:            principal.Name,
			UserEmail:           principal.Email,
			VehicleMake:         fields.VehicleMake,
			VehicleModel:        fields.VehicleModel,
			VehicleYear:         fields.VehicleYear,
			LicensePlate:        fields.LicensePlate,
			VehicleColor:        fields.VehicleColor,
			Reason:              fields.Reason,
			IDDocument:          fields.IDDocument,
			VehicleRegistration: fields.VehicleRegistration,
			Status:              models.StatusPending,
			SubmittedAt:         primitive.NewDateTimeFromTime(s.clock()),
		},
	}
	if err := s.Apps.InsertOne(ctx, app); err != nil {
		return models.Application{}, fmt.Errorf("failed to insert application: %w", err)
	}

	zap.S().Infow("application submitted",
		"applicationId", app.ID.Hex(),
		"userId", principal.ID,
	)
	if s.Events != nil {
		s.Events.ApplicationSubmitted(app)
	}
	return app, nil
}

// ListAll returns every application in submission order. Admin only.
func (s *Service) ListAll(ctx context.Context, principal models.Principal) ([]models.Application, error) {
	if principal.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}
	apps, err := s.Apps.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListOwnedBy returns the principal's own applications in submission order.
func (s *Service) ListOwnedBy(ctx context.Context, principal models.Principal) ([]models.Application, error) {
	apps, err := s.Apps.FindByUserID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// Review transitions a pending application to approved or rejected and
// records the admin comment alongside. The pending check and the write are a
// single atomic store operation, so the loser of two concurrent reviews gets
// ErrInvalidTransition and the record stays untouched.
func (s *Service) Review(ctx context.Context, principal models.Principal, applicationID, decision, comment string) (models.Application, error) {
	if principal.Role != models.RoleAdmin {
		return models.Application{}, ErrUnauthorized
	}
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return models.Application{}, &ValidationError{Field: "decision", Reason: "must be approved or rejected"}
	}

	id, err := primitive.ObjectIDFromHex(applicationID)
	if err != nil {
		return models.Application{}, ErrNotFound
	}

	app, err := s.Apps.TransitionStatus(ctx, id, decision, comment, principal.ID, s.clock())
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.Application{}, ErrNotFound
		case errors.Is(err, databases.ErrNotPending):
			return models.Application{}, ErrInvalidTransition
		default:
			return models.Application{}, fmt.Errorf("failed to review application: %w", err)
		}
	}

	zap.S().Infow("application reviewed",
		"applicationId", app.ID.Hex(),
		"decision", decision,
		"reviewedBy", principal.ID,
	)
	if s.Events != nil {
		s.Events.ApplicationReviewed(*app)
	}
	if s.Mailer != nil {
		go s.Mailer.SendDecision(*app)
	}
	return *app, nil
}

// Counts recomputes the pending/approved/rejected totals over the full
// record set on every call; they are never stored separately. Admin only.
func (s *Service) Counts(ctx context.Context, principal models.Principal) (models.ApplicationCounts, error) {
	apps, err := s.ListAll(ctx, principal)
	if err != nil {
		return models.ApplicationCounts{}, err
	}

	var counts models.ApplicationCounts
	for _, app := range apps {
		switch app.Details.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (f Submission) validate() error {
	switch {
	case f.VehicleMake == "":
		return requiredField("vehicleMake")
	case f.VehicleModel == "":
		return requiredField("vehicleModel")
	case f.VehicleYear <= 0:
		return requiredField("vehicleYear")
	case f.LicensePlate == "":
		return requiredField("licensePlate")
	case f.VehicleColor == "":
		return requiredField("vehicleColor")
	case f.Reason == "":
		return requiredField("reason")
	case f.IDDocument == "":
		return requiredField("idDocument")
	case f.VehicleRegistration == "":
		return requiredField("vehicleRegistration")
	}
	return nil
}
