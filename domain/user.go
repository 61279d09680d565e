package domain

// User is the display identity resolved for message senders.
// Authentication and profile management live outside this module.
type User struct {
	ID           int
	Nickname     string
	ProfileImage string
}
