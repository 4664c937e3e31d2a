package models

import "time"

// Property is a rental listing. Every conversation is scoped to one.
type Property struct {
	ID        int64     `json:"property_id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PropertyRequest is the body for creating a listing
type PropertyRequest struct {
	Name  string  `json:"name" binding:"required,max=200"`
	Price float64 `json:"price" binding:"required,gt=0"`
	City  string  `json:"city" binding:"max=100"`
}

// PropertySummary is the listing preview attached to conversations
type PropertySummary struct {
	ID    int64   `json:"property_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (p *Property) Summary() *PropertySummary {
	return &PropertySummary{ID: p.ID, Name: p.Name, Price: p.Price}
}
