package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role values assigned to a user at account creation. A role never changes
// through any exposed operation.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email     string      `json:"email" bson:"email"`
	Name      string      `json:"name" bson:"name"`
	Role      string      `json:"role" bson:"role"`
	Password  string      `json:"password,omitempty" bson:"password"`
	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
}

// Principal is the authenticated identity handed to the application registry.
// It is a snapshot of the user record, not a live join.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Principal converts a stored user into the principal shape used for
// authorization decisions.
func (u User) Principal() Principal {
	return Principal{
		ID:    u.ID.Hex(),
		Email: u.Details.Email,
		Name:  u.Details.Name,
		Role:  u.Details.Role,
	}
}
