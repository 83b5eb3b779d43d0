package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullabilityJoin(t *testing.T) {
	assert.Equal(t, NotNull, NullJoin(NullBottom, NotNull))
	assert.Equal(t, Nullable, NullJoin(NotNull, DefinitelyNull))
	assert.Equal(t, Nullable, NullJoin(NotNull, Nullable))
	assert.Equal(t, NotNull, NullJoin(NotNull, NotNull))
}

func TestNullabilityWidenIsJoin(t *testing.T) {
	assert.Equal(t, NullJoin(NotNull, DefinitelyNull), NullWiden(NotNull, DefinitelyNull))
}

func TestNullabilityMeet(t *testing.T) {
	assert.Equal(t, NotNull, NullMeet(Nullable, NotNull))
	assert.Equal(t, NullBottom, NullMeet(NotNull, DefinitelyNull))
}
