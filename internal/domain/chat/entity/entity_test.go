package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationSlots(t *testing.T) {
	conv := &Conversation{ParticipantA: "a", ParticipantB: "b", DeletedByB: true}

	assert.Equal(t, SlotA, conv.SlotOf("a"))
	assert.Equal(t, SlotB, conv.SlotOf("b"))
	assert.Equal(t, SlotNone, conv.SlotOf("c"))
	assert.Equal(t, "b", conv.OtherParticipant("a"))
	assert.Equal(t, "a", conv.OtherParticipant("b"))
	assert.True(t, conv.DeletedBy("b"))
	assert.False(t, conv.DeletedBy("a"))
	assert.False(t, conv.DeletedBy("c"))
	assert.Equal(t, "", conv.OriginatingListing())
}

func TestNormalizeText(t *testing.T) {
	text, err := NormalizeText("  hello \n", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = NormalizeText("   ", 0)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NormalizeText(strings.Repeat("é", MaxMessageLength+1), MaxMessageLength)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = NormalizeText("hello", 3)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	text, err = NormalizeText(strings.Repeat("a", MaxMessageLength), 0)
	require.NoError(t, err)
	assert.Len(t, text, MaxMessageLength)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Carla Dias", DisplayName("Carla", " Dias ", "Usuário"))
	assert.Equal(t, "Carla", DisplayName("Carla", "", "Usuário"))
	assert.Equal(t, "Usuário", DisplayName(" ", "", "Usuário"))
}
