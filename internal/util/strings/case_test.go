package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"TakeDamage", "take_damage"},
		{"IsAlive", "is_alive"},
		{"HP", "hp"},
		{"HTTPRequest", "http_request"},
		{"UserID", "user_id"},
		{"Level2Boss", "level2_boss"},
		{"new", "new"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnakeCase(tt.input))
		})
	}
}

func TestTrimTypePrefix(t *testing.T) {
	assert.Equal(t, "Idle", TrimTypePrefix("PlayerStatusIdle", "PlayerStatus"))
	assert.Equal(t, "PlayerStatus", TrimTypePrefix("PlayerStatus", "PlayerStatus"))
	assert.Equal(t, "Walking", TrimTypePrefix("Walking", "PlayerStatus"))
	assert.Equal(t, "Status_1", TrimTypePrefix("Status_1", "Status"))
}

func TestIsLuaIdentifier(t *testing.T) {
	assert.True(t, IsLuaIdentifier("take_damage"))
	assert.True(t, IsLuaIdentifier("_private"))
	assert.True(t, IsLuaIdentifier("x2"))
	assert.False(t, IsLuaIdentifier("2x"))
	assert.False(t, IsLuaIdentifier("end"))
	assert.False(t, IsLuaIdentifier("with-dash"))
	assert.False(t, IsLuaIdentifier(""))
	assert.False(t, IsLuaIdentifier("héros"))
}
