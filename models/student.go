package models

import "time"

// Colleges a student can register under.
var Colleges = []string{"MIT", "BITS"}

// Student is a booking client.
type Student struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name,omitempty" json:"name,omitempty"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CollegeName  string    `bson:"collegeName" json:"collegeName"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StudentRegistrationRequest is the sign-up payload.
type StudentRegistrationRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	CollegeName string `json:"collegeName" binding:"required,oneof=MIT BITS"`
}

// LoginRequest is shared by students and therapists.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Role  string `json:"role"`
}
