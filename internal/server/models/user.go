package models

import "time"

// User is an operator allowed to request upload signatures from mediasrv.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
