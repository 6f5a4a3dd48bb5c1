package domain

// User is the identity record owned by the auth subsystem. Chat only
// reads it to resolve display fields; user ids arrive already authenticated.
type User struct {
	ID       int64   `db:"id"`
	Username *string `db:"username"`
	Email    string  `db:"email"`
}
