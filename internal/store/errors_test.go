package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification_Postgres(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}
	other := &pq.Error{Code: "42P01"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isForeignKeyViolation(unique))
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isUniqueViolation(fk))
	assert.False(t, isUniqueViolation(other))
	assert.False(t, isForeignKeyViolation(errors.New("plain")))
}
