package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string  `json:"username" validate:"required,max=5"`
	DueDate  *string `json:"dueDate"  validate:"omitempty,datetime=2006-01-02"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()
	good := "2026-01-31"
	bad := "31/01/2026"

	tests := []struct {
		name       string
		in         sample
		wantFields map[string]string
	}{
		{name: "valid", in: sample{Username: "bob", DueDate: &good}},
		{name: "missing username", in: sample{}, wantFields: map[string]string{"username": "is required"}},
		{name: "too long", in: sample{Username: "bobbybob"}, wantFields: map[string]string{"username": "must be at most 5 characters"}},
		{name: "bad date", in: sample{Username: "bob", DueDate: &bad}, wantFields: map[string]string{"dueDate": "must be a date in YYYY-MM-DD format"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantFields, verr.Fields())
			assert.Contains(t, verr.Error(), "field '")
		})
	}
}
