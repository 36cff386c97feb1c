package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IDFromContent(tt.content), IDFromContent(tt.content))
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	assert.NotEqual(t, IDFromContent("alpha"), IDFromContent("beta"))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "0000000000000001", ID(1).String())
	assert.Equal(t, "ffffffffffffffff", ID(^uint64(0)).String())
	assert.Len(t, IDFromContent("anything").String(), 16)
}

func TestDocumentField(t *testing.T) {
	var nilDoc *Document
	_, ok := nilDoc.Field("a")
	assert.False(t, ok)

	doc := &Document{UserID: "u1", Storage: map[string]string{"a": "1"}}
	v, ok := doc.Field("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = doc.Field("b")
	assert.False(t, ok)
}

func TestChatSummaryIsZero(t *testing.T) {
	assert.True(t, ChatSummary{}.IsZero())
	assert.False(t, ChatSummary{Text: "x"}.IsZero())
	assert.False(t, ChatSummary{MessageCount: 3}.IsZero())
}
