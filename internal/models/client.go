package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is the read model of the external client directory. The engine
// only reads age, registration date and the active membership type.
type Client struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name,omitempty" json:"name,omitempty"`
	BirthDate        time.Time          `bson:"birthDate" json:"birthDate"`
	RegistrationDate time.Time          `bson:"registrationDate" json:"registrationDate"`
	MembershipType   string             `bson:"membershipType" json:"membershipType"`
	// MembershipEndDate is informational; extensions go through the
	// membership system, never through this record.
	MembershipEndDate time.Time `bson:"membershipEndDate,omitempty" json:"membershipEndDate,omitempty"`
}

// AgeAt returns the client's age in whole years at the given instant.
func (c *Client) AgeAt(now time.Time) int {
	age := now.Year() - c.BirthDate.Year()
	if now.Month() < c.BirthDate.Month() ||
		(now.Month() == c.BirthDate.Month() && now.Day() < c.BirthDate.Day()) {
		age--
	}
	return age
}

// TenureMonthsAt returns whole months of membership since registration.
func (c *Client) TenureMonthsAt(now time.Time) int {
	if now.Before(c.RegistrationDate) {
		return 0
	}
	months := (now.Year()-c.RegistrationDate.Year())*12 + int(now.Month()) - int(c.RegistrationDate.Month())
	if now.Day() < c.RegistrationDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
