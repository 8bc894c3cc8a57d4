package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parkpass/parking-pass-api/api/testhelpers"
	"github.com/parkpass/parking-pass-api/models"
)

func TestTimestampsComeFromClock(t *testing.T) {
	frozen := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	svc := NewService(testhelpers.NewApplicationStore(), nil, nil)
	svc.now = func() time.Time { return frozen }

	user := models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser}
	admin := models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}

	app, err := svc.Submit(context.Background(), user, Submission{
		VehicleMake:         "Honda",
		VehicleModel:        "Civic",
		VehicleYear:         2019,
		LicensePlate:        "FRZ-001",
		VehicleColor:        "red",
		Reason:              "overnight permit",
		IDDocument:          "id.pdf",
		VehicleRegistration: "reg.pdf",
	})
	assert.NoError(t, err)
	assert.Equal(t, frozen, app.Details.SubmittedAt.Time().UTC())

	reviewed, err := svc.Review(context.Background(), admin, app.ID.Hex(), models.StatusApproved, "")
	assert.NoError(t, err)
	assert.Equal(t, frozen, reviewed.Details.ReviewedAt.Time().UTC())
}
