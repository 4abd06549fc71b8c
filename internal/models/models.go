package models

import "time"

type AdminUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

type TOTPRecord struct {
	UserID   int64  `json:"user_id"`
	Secret   string `json:"-"`
	IsActive bool   `json:"is_active"`
}

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	Email     string    `json:"email"`
	Login     string    `json:"login"`
	Password  string    `json:"-"` // blob chiffré (clé de stockage)
	CreatedAt time.Time `json:"created_at"`
}

type CreatePlayerInput struct {
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// PlayerSummary ne contient aucune donnée sensible.
type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

type PlayerExists struct {
	EmailExists bool `json:"email_exists"`
	LoginExists bool `json:"login_exists"`
}
