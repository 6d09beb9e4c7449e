package models

import "time"

// Scope partitions saved views between a user and their organization.
type Scope string

const (
	ScopePrivate Scope = "private"
	ScopeCompany Scope = "company"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopePrivate || s == ScopeCompany
}

// LayerFlags records which map layers are visible.
type LayerFlags struct {
	Markers  bool `json:"markers"`
	Clusters bool `json:"clusters"`
	Heatmap  bool `json:"heatmap"`
}

// MapState is the restorable part of a map session.
type MapState struct {
	Filters FilterSet  `json:"filters"`
	Center  LatLng     `json:"center"`
	Layers  LayerFlags `json:"layers"`
	Zoom    int        `json:"zoom"`
}

// SavedView is a persisted snapshot of a map session.
// Company views are shared across the organization but only the creator may delete them.
type SavedView struct {
	CreatedAt time.Time  `json:"createdAt"`
	Filters   FilterSet  `json:"filters"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Scope     Scope      `json:"scope"`
	CreatedBy string     `json:"createdBy"`
	OrgID     string     `json:"orgId,omitempty"`
	Center    LatLng     `json:"center"`
	Layers    LayerFlags `json:"layers"`
	Zoom      int        `json:"zoom"`
}

// State extracts the restorable map state from the view.
func (v *SavedView) State() MapState {
	return MapState{
		Center:  v.Center,
		Zoom:    v.Zoom,
		Filters: v.Filters.Clone(),
		Layers:  v.Layers,
	}
}

// SavedSearch is a named filter set.
type SavedSearch struct {
	CreatedAt time.Time `json:"createdAt"`
	Filters   FilterSet `json:"filters"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
}

// Bookmark is a property snapshot kept on the caller's bookmark list.
type Bookmark struct {
	BookmarkedAt time.Time `json:"bookmarkedAt"`
	Property     Property  `json:"property"`
}

// Favorite marks a property as a favorite on the caller's account.
type Favorite struct {
	CreatedAt  time.Time `json:"createdAt"`
	UserID     string    `json:"userId"`
	PropertyID string    `json:"propertyId"`
}

// Caller identifies the user on whose behalf a request runs.
type Caller struct {
	UserID string
	OrgID  string
}
