package models

import "time"

// Conversion is one row of a user's conversion history.
type Conversion struct {
	ID               string
	UserID           string
	OriginalFilename string
	OriginalFormat   string
	OutputFormat     string
	OutputURL        *string
	CreatedAt        time.Time
}
