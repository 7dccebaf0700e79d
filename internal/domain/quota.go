package domain

import "time"

// QuotaRecord is the persisted anonymous allowance for the current window.
type QuotaRecord struct {
	Count           int       `json:"count"`
	NextAllowedTime time.Time `json:"nextAllowedTime"`
}

// QuotaWindow describes the current window for display.
type QuotaWindow struct {
	Limit           int       `json:"limit"`
	Used            int       `json:"used"`
	Remaining       int       `json:"remaining"`
	NextAllowedTime time.Time `json:"next_allowed_time"`
}
