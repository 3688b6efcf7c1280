package auth

import "time"

type Account struct {
	Username  string
	Password  string
	Salt      string
	CreatedAt time.Time
}

type Session struct {
	Token    string
	Username string
	Expire   time.Time
}

// Identity is the outcome of authenticating a request. An empty Username
// means the request is not authenticated, whether or not a token was sent.
type Identity struct {
	Username string `json:"username"`
	Session  string `json:"session"`
}

func (i Identity) Authenticated() bool {
	return i.Username != ""
}

type LoginResult struct {
	Username string
	Session  string
	Created  bool
}
