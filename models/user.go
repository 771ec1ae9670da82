package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. The password hash and verification token
// never leave the service.
type User struct {
	ID                primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Email             string             `json:"email" bson:"email"`
	Phone             string             `json:"phone" bson:"phone"`
	Username          string             `json:"username" bson:"username"`
	Password          string             `json:"-" bson:"password"`
	Role              string             `json:"role" bson:"role"`
	EmailVerified     bool               `json:"emailVerified" bson:"emailVerified"`
	VerificationToken string             `json:"-" bson:"verificationToken,omitempty"`
	TokenExpires      *time.Time         `json:"-" bson:"tokenExpires,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
}

type Subscriber struct {
	ID                  primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name"`
	SubscribedToChannel string             `json:"subscribedToChannel" bson:"subscribedToChannel"`
	SubscribeDate       time.Time          `json:"subscribeDate" bson:"subscribeDate"`
}
