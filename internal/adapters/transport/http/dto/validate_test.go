package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsFullName(t *testing.T) {
	valid := []string{"John Doe", "Anton German", "Иван Петров", "Пётр Ёлкин", "jOhN dOe", "  John Doe  ", "John\tDoe"}
	for _, n := range valid {
		require.True(t, IsFullName(n), n)
	}

	invalid := []string{"", "   ", "John", "John Ronald Tolkien", "John  Doe", "John Doe2", "Jean-Luc Picard", "O'Neil Jack", "John_Doe Smith"}
	for _, n := range invalid {
		require.False(t, IsFullName(n), n)
	}
}

func TestRegisterDTOValidation(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(RegisterDTO{Username: "alice", FullName: "Alice Doe", Password: "s3cret!"}))

	err := v.Struct(RegisterDTO{Username: "alice", FullName: "Alice", Password: "s3cret!"})
	require.Error(t, err)
	require.Contains(t, Describe(err), "exactly two words")

	err = v.Struct(RegisterDTO{Username: "al", FullName: "Alice Doe", Password: "x"})
	require.Error(t, err)
	require.Contains(t, Describe(err), "username must satisfy min=3")

	err = v.Struct(RegisterDTO{Username: "al!ce", FullName: "Alice Doe", Password: "x"})
	require.Contains(t, Describe(err), "letters and digits")

	err = v.Struct(RegisterDTO{Username: "alice", FullName: "Alice Doe"})
	require.Contains(t, Describe(err), "password is required")
}

func TestDescribeNonValidationError(t *testing.T) {
	require.Equal(t, "invalid request", Describe(nil))
}
