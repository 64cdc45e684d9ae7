package redis

import (
	"fmt"

	"github.com/mcoot/eventsphere/internal/model"
)

// keys builds Redis keys under a common prefix
type keys struct {
	prefix string
}

// participant returns the key of the HASH holding a participant
func (k keys) participant(id model.RegistrationID) string {
	return fmt.Sprintf("%s:participant:%s", k.prefix, id)
}

// emailIndex returns the key mapping an email to its registration ID
func (k keys) emailIndex(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, email)
}

// participantsByCreated returns the ZSET of registration IDs scored by creation time
func (k keys) participantsByCreated() string {
	return fmt.Sprintf("%s:idx:participants", k.prefix)
}

// attendedSet returns the SET of registration IDs that have checked in
func (k keys) attendedSet() string {
	return fmt.Sprintf("%s:idx:attended", k.prefix)
}

// session returns the key for an admin session
func (k keys) session(token string) string {
	return fmt.Sprintf("%s:session:%s", k.prefix, token)
}
