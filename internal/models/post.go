package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
	PostStatusHidden   = "hidden"
	PostStatusClosed   = "closed"
	PostStatusDeleted  = "deleted"
)

// ResponderAnyone is the neutral responder preference and is never
// rendered as a restriction.
const ResponderAnyone = "anyone"

// Post is an activity offer. Latitude and Longitude are either both
// set or both null; the feed relies on that to rank by distance.
type Post struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OwnerID          uuid.UUID  `db:"owner_id" json:"owner_id"`
	Title            string     `db:"title" json:"title"`
	Location         string     `db:"location" json:"location"`
	Latitude         *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64   `db:"longitude" json:"longitude,omitempty"`
	TimeText         string     `db:"time_text" json:"time_text"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	PostedBy         string     `db:"posted_by" json:"posted_by"`
	Responder        string     `db:"responder" json:"responder"`
	PeopleInterested int        `db:"people_interested" json:"people_interested"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// HasCoordinates reports whether the post can be distance-ranked.
func (p *Post) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// RankedPost is a feed entry annotated with the distance to the viewer.
type RankedPost struct {
	Post
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
}
