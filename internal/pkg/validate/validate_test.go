package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Title    string `json:"title" validate:"required"`
	Location string `json:"location" validate:"omitempty,oneof=bole semit"`
	Price    int    `json:"price" validate:"gt=0"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Title: "Flat", Location: "bole", Price: 100}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Location: "mars", Email: "nope"})
	assert.ErrorContains(t, err, "title is required")
	assert.ErrorContains(t, err, "location must be one of [bole semit]")
	assert.ErrorContains(t, err, "price failed 'gt=0'")
	assert.ErrorContains(t, err, "email must be a valid email address")
}
