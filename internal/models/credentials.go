package models

import "fmt"

// Credentials identify the mailbox owner. The password is never rendered.
type Credentials struct {
	Username string
	Password string
	Host     string
}

func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.Host)
}

// GoString keeps the password out of %#v output as well
func (c Credentials) GoString() string {
	return fmt.Sprintf("models.Credentials{Username: %q, Host: %q}", c.Username, c.Host)
}
