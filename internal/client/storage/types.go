package storage

import "time"

// SessionFile is the on-disk form of a terminal session: the backend
// cookies needed to resume it. The viewer's identity is never stored; it
// is fetched again on start.
type SessionFile struct {
	Backend string    `json:"backend"` // base URL the cookies belong to
	Cookies []Cookie  `json:"cookies"`
	SavedAt time.Time `json:"saved_at"`
}

// Cookie is one backend cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
