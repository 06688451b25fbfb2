package client

import (
	"net/url"
	"strconv"
	"time"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Landmark string `json:"landmark"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Profile struct {
	User
	Address       string    `json:"address"`
	Landmark      string    `json:"landmark"`
	UpvotedIssues []string  `json:"upvotedIssues"`
	LastLogin     time.Time `json:"lastLogin"`
}

type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Point returns a GeoJSON point for the given longitude and latitude.
func Point(longitude, latitude float64) Location {
	return Location{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

type Issue struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Status           string   `json:"status"`
	Priority         string   `json:"priority"`
	ConcernAuthority string   `json:"concernAuthority"`
	Reporter         string   `json:"reporter"`
	Comments         []string `json:"comments"`
	Images           []string `json:"images"`
	Tags             []string `json:"tags"`
	Colony           string   `json:"colony"`
	Pincode          string   `json:"pincode"`
	Location         Location `json:"location"`
	Upvotes          struct {
		Count int64 `json:"count"`
	} `json:"upvotes"`
	HasUpvoted bool      `json:"hasUpvoted"`
	DistanceKm *float64  `json:"distanceKm,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type NewIssue struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	ConcernAuthority string   `json:"concernAuthority"`
	Reporter         string   `json:"reporter"`
	Comments         []string `json:"comments"`
	Images           []string `json:"images"`
	Tags             []string `json:"tags"`
	Colony           string   `json:"colony"`
	Pincode          string   `json:"pincode"`
	Location         Location `json:"location"`
}

type UpvoteState struct {
	UpvoteCount int64 `json:"upvoteCount"`
	HasUpvoted  bool  `json:"hasUpvoted"`
}

type UploadedImage struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Sort orders understood by the listing endpoint.
const (
	SortRecent    = "recent"
	SortSupported = "supported"
	SortDistance  = "distance"
)

// Near restricts a listing to a radius around a point.
type Near struct {
	Longitude float64
	Latitude  float64
	RadiusKm  float64
}

// ListOptions are the listing filters. Zero values are left out of the query.
type ListOptions struct {
	Colony  string
	Pincode string
	Near    *Near
	Sort    string
	Page    int
	Limit   int
}

func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Colony != "" {
		v.Set("colony", o.Colony)
	}
	if o.Pincode != "" {
		v.Set("pincode", o.Pincode)
	}
	if o.Near != nil {
		v.Set("longitude", strconv.FormatFloat(o.Near.Longitude, 'f', -1, 64))
		v.Set("latitude", strconv.FormatFloat(o.Near.Latitude, 'f', -1, 64))
		v.Set("radius", strconv.FormatFloat(o.Near.RadiusKm, 'f', -1, 64))
	}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}
