package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smileynet/atelier/internal/scope"
)

// Record is implemented by every entity the console lists.
type Record interface {
	Identifier() string
}

// User is a console account.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// Identifier returns the user id.
func (u User) Identifier() string { return u.ID }

// Identity converts u to the scope's identity.
func (u User) Identity() scope.Identity {
	return scope.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserInput is the body for creating or updating a user.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

// Season is a production season.
type Season struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Year   int    `json:"year"`
	Active bool   `json:"active"`
}

// Identifier returns the season id.
func (s Season) Identifier() string { return s.ID }

// Scope converts s to the scope's season.
func (s Season) Scope() scope.Season {
	return scope.Season{ID: s.ID, Name: s.Name}
}

// SeasonInput is the body for creating or updating a season.
type SeasonInput struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}

// StockReturn is goods sent back by a faconnier under a bon.
type StockReturn struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	SeasonID    string          `json:"seasonId"`
	FaconnierID string          `json:"faconnierId"`
	BonID       string          `json:"bonId"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Identifier returns the stock return id.
func (r StockReturn) Identifier() string { return r.ID }

// StockReturnInput is the body for creating or updating a stock return.
type StockReturnInput struct {
	Reference   string          `json:"reference"`
	SeasonID    string          `json:"seasonId"`
	FaconnierID string          `json:"faconnierId"`
	BonID       string          `json:"bonId,omitempty"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// Order is a client order placed for a season.
type Order struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	SeasonID  string          `json:"seasonId"`
	ClientID  string          `json:"clientId"`
	StylistID string          `json:"stylistId"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
}

// Identifier returns the order id.
func (o Order) Identifier() string { return o.ID }

// OrderInput is the body for creating or updating an order.
type OrderInput struct {
	Reference string          `json:"reference"`
	SeasonID  string          `json:"seasonId"`
	ClientID  string          `json:"clientId"`
	StylistID string          `json:"stylistId,omitempty"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}
