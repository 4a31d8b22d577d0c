package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"имя важнее username", User{ID: 1, Name: "Аня", Username: "anya"}, "Аня"},
		{"только username", User{ID: 2, Username: "anya"}, "@anya"},
		{"пустой профиль", User{ID: 3}, "Игрок"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}

func TestUser_TableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
}
