package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateRequired(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateRequired("value", "field"))
	assert.Error(t, v.ValidateRequired("", "field"))
	assert.Error(t, v.ValidateRequired("   ", "field"))
}

func TestValidateStringLength(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateStringLength("abc", "field", 1, 5))
	assert.Error(t, v.ValidateStringLength("", "field", 1, 5))
	assert.Error(t, v.ValidateStringLength("abcdef", "field", 1, 5))
}

func TestValidateUUID(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateUUID(uuid.New(), "field"))
	assert.Error(t, v.ValidateUUID(uuid.Nil, "field"))
}

func TestValidateOneOf(t *testing.T) {
	v := New()
	allowed := []string{"Beginner", "Intermediate", "Advanced"}
	assert.NoError(t, v.ValidateOneOf("Beginner", "difficulty", allowed))
	assert.NoError(t, v.ValidateOneOf("", "difficulty", allowed)) // Optional
	assert.Error(t, v.ValidateOneOf("Nightmare", "difficulty", allowed))
}

func TestValidatePositiveInt(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidatePositiveInt(5, "steps"))
	assert.Error(t, v.ValidatePositiveInt(0, "steps"))
	assert.Error(t, v.ValidatePositiveInt(-5, "steps"))
}

func TestValidateIntRange(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		value    int
		min      int
		max      int
		hasError bool
	}{
		{"valid in range", 50, 1, 100, false},
		{"at min", 1, 1, 100, false},
		{"at max", 100, 1, 100, false},
		{"below min", 0, 1, 100, true},
		{"above max", 101, 1, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateIntRange(tt.value, "test_field", tt.min, tt.max)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal text", "hello world", "hello world"},
		{"trim whitespace", "  hello  ", "hello"},
		{"remove null bytes", "hello\x00world", "helloworld"},
		{"remove control chars", "hello\x07world", "helloworld"},
		{"preserve apostrophe", "Kepler's Dream", "Kepler's Dream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.SanitizeString(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	assert.False(t, ve.HasErrors())

	ve.Add(nil)
	assert.False(t, ve.HasErrors())

	ve.Add(assert.AnError)
	assert.True(t, ve.HasErrors())
	assert.Equal(t, assert.AnError.Error(), ve.Error())
}
