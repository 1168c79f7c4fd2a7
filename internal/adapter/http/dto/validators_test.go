package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardNumberFormat(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"Valid", "1111 2222 3333 4444", true},
		{"NoSpaces", "1111222233334444", false},
		{"Dashes", "1111-2222-3333-4444", false},
		{"TooShort", "1111 2222 3333", false},
		{"TrailingSpace", "1111 2222 3333 4444 ", false},
		{"Letters", "abcd 2222 3333 4444", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cardNumberRe.MatchString(tt.number))
		})
	}
}

func TestSanitizeStruct(t *testing.T) {
	email := "  bob@example.com  "
	req := struct {
		Username string
		Email    *string
		Password string
		Age      int
	}{
		Username: "  <script>alert(1)</script>  ",
		Email:    &email,
		Password: "  p<ss&word  ",
		Age:      30,
	}

	SanitizeStruct(&req)

	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", req.Username)
	assert.Equal(t, "bob@example.com", *req.Email)
	assert.Equal(t, "  p<ss&word  ", req.Password, "secrets pass through verbatim")
	assert.Equal(t, 30, req.Age)
}

func TestSanitizeStruct_IgnoresNonStruct(t *testing.T) {
	s := "  hello  "
	SanitizeStruct(&s)
	assert.Equal(t, "  hello  ", s)

	SanitizeStruct(nil)
}
