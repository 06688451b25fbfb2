package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Email         string               `bson:"email" json:"email"`
	Phone         string               `bson:"phone" json:"phone"`
	Password      string               `bson:"password,omitempty" json:"-"`
	Address       string               `bson:"address" json:"address"`
	Landmark      string               `bson:"landmark" json:"landmark"`
	UpvotedIssues []primitive.ObjectID `bson:"upvotedIssues" json:"upvotedIssues"`
	LastLogin     time.Time            `bson:"lastLogin" json:"lastLogin"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}

// PublicUser is the profile returned alongside a token.
type PublicUser struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone"`
}

// Profile is the user view returned after a profile update.
type Profile struct {
	PublicUser
	Address  string `json:"address"`
	Landmark string `json:"landmark"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

func (u *User) Profile() Profile {
	return Profile{PublicUser: u.Public(), Address: u.Address, Landmark: u.Landmark}
}

// ProfileFields lists the user fields a caller may change.
var ProfileFields = map[string]bool{
	"name":     true,
	"address":  true,
	"landmark": true,
}
