package models

import "time"

// Image is an uploaded photo held in memory until it is analyzed.
type Image struct {
	ID          string    `json:"imageId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"-"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
