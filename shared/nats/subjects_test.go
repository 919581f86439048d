package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserSubject(t *testing.T) {
	assert.Equal(t, "campus.chat.user.42", BuildUserSubject(42))
	assert.Equal(t, "campus.chat.user.*", SubjectUserWildcard)
}
