package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Application status values. An application starts out pending and moves
// exactly once to approved or rejected; both are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Application holds the structure for the application collection in mongo
type Application struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details ApplicationDetails `json:"application" bson:"application"`
	Version int32              `json:"__v" bson:"__v"`
}

// ApplicationDetails holds the structure for the inner application structure
// as defined in the application collection in mongo. The userID/userName/
// userEmail fields are a snapshot of the submitting user taken at submission
// time; later identity changes do not alter historical records.
type ApplicationDetails struct {
	UserID              string             `json:"userID" bson:"userID"`
	UserName            string             `json:"userName" bson:"userName"`
	UserEmail           string             `json:"userEmail" bson:"userEmail"`
	VehicleMake         string             `json:"vehicleMake" bson:"vehicleMake"`
	VehicleModel        string             `json:"vehicleModel" bson:"vehicleModel"`
	VehicleYear         int                `json:"vehicleYear" bson:"vehicleYear"`
	LicensePlate        string             `json:"licensePlate" bson:"licensePlate"`
	VehicleColor        string             `json:"vehicleColor" bson:"vehicleColor"`
	Reason              string             `json:"reason" bson:"reason"`
	IDDocument          string             `json:"idDocument" bson:"idDocument"`
	VehicleRegistration string             `json:"vehicleRegistration" bson:"vehicleRegistration"`
	Status              string             `json:"status" bson:"status"`
	AdminComment        string             `json:"adminComment,omitempty" bson:"adminComment,omitempty"`
	SubmittedAt         primitive.DateTime `json:"submittedAt" bson:"submittedAt"`
	ReviewedAt          primitive.DateTime `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	ReviewedBy          string             `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
}

// ApplicationCounts are derived aggregates over the full application set,
// recomputed on read so they cannot drift from the records themselves.
type ApplicationCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
