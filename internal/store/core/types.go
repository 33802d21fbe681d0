package core

import "time"

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type Client struct {
	ID        string
	ClientID  string
	Name      string
	ClientURL string // audience de los tokens emitidos para este client
	CreatedAt time.Time
}
