// Package models holds the domain types shared by storage, service and transport layers.
package models

import (
	"regexp"
	"time"
)

// Role identifies the privilege level of a user.
type Role int

const (
	// RoleAdmin is the protected administrator role. Admins cannot be deleted from the panel.
	RoleAdmin Role = 1
	// RoleUser is the role assigned on registration.
	RoleUser Role = 2
)

// SystemUserID owns URLs shortened by anonymous visitors. It is also the bootstrap admin.
const SystemUserID int64 = 1

// User is a registered account.
type User struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Password string `json:"-"`
	Role     Role   `json:"role_id"`
}

// URL is a model for a shortened URL
type URL struct {
	ID          int64  `json:"url_id"`
	OriginalURL string `json:"url"`
	UserID      int64  `json:"user_id"`
	ShortURL    string `json:"short_url"`
}

// URLStats is a listing row: the URL plus the number of recorded visits.
type URLStats struct {
	URL
	Visits int `json:"visits"`
}

// Visit is one recorded traversal of a short code.
type Visit struct {
	ID        int64     `json:"id"`
	VisitorIP string    `json:"visitor_ip"`
	URLID     int64     `json:"url_id"`
	VisitDate time.Time `json:"visit_date"`
}

// Stats holds service-wide totals.
type Stats struct {
	URLs   int `json:"urls"`
	Users  int `json:"users"`
	Visits int `json:"visits"`
}

var schemePattern = regexp.MustCompile(`^(http|ftp|https|sftp)://`)

// NormalizeURL prefixes rawURL with http:// unless it already starts with a known scheme.
func NormalizeURL(rawURL string) string {
	if schemePattern.MatchString(rawURL) {
		return rawURL
	}
	return "http://" + rawURL
}
