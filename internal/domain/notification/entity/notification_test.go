package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileViewMessage(t *testing.T) {
	assert.Equal(t, "Carla Dias visitou seu perfil.", ProfileViewMessage("Carla Dias"))
	assert.Equal(t, "Alguém visitou seu perfil.", ProfileViewMessage("  "))
}
