package models

import "time"

// PDFOperation is the audit row written for every PDF tool invocation
// (merge, split, protect, unlock, ocr). Insert-only from the API.
type PDFOperation struct {
	ID            string
	UserID        string
	Operation     string
	InputFilename string
	OutputURL     string
	CreatedAt     time.Time
}
