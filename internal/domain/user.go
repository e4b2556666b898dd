package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FName        string             `bson:"fname" json:"fname"`
	LName        string             `bson:"lname" json:"lname"`
	Email        string             `bson:"email" json:"email"`
	ProfileImage string             `bson:"profile_image" json:"profileImage"`
	Phone        string             `bson:"phone" json:"phone"`
	Password     string             `bson:"password" json:"-"`
	Address      Address            `bson:"address" json:"address"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Address struct {
	Shipping AddressLine `bson:"shipping" json:"shipping"`
	Billing  AddressLine `bson:"billing" json:"billing"`
}

type AddressLine struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	Pincode string `bson:"pincode" json:"pincode"`
}

// UserUpdate carries the fields of a partial profile update.
type UserUpdate struct {
	FName        *string
	LName        *string
	Email        *string
	Phone        *string
	Password     *string
	ProfileImage *string
	Address      *Address
}

// UnmarshalJSON accepts the pincode as either a JSON string or a number.
func (l *AddressLine) UnmarshalJSON(data []byte) error {
	var raw struct {
		Street  string          `json:"street"`
		City    string          `json:"city"`
		Pincode json.RawMessage `json:"pincode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Street = raw.Street
	l.City = raw.City
	l.Pincode = ""

	if len(raw.Pincode) == 0 || string(raw.Pincode) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Pincode, &s); err == nil {
		l.Pincode = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Pincode, &n); err != nil {
		return fmt.Errorf("pincode must be a string or a number: %w", err)
	}
	l.Pincode = n.String()
	return nil
}
