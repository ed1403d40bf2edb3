package imagegen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserMessagePlainText(t *testing.T) {
	msg := BuildUserMessage("a red circle", "")

	assert.Equal(t, "user", msg.Role)
	content, ok := msg.Content.(string)
	require.True(t, ok, "content must be a plain string without an edit image")
	assert.Equal(t, "a red circle", content)
}

func TestBuildUserMessageWithEditImage(t *testing.T) {
	msg := BuildUserMessage("make it blue", "data:image/png;base64,aGVsbG8=")

	parts, ok := msg.Content.([]ContentPart)
	require.True(t, ok, "content must be a part list with an edit image")
	require.Len(t, parts, 2)

	// 文本条目在前，图像条目在后
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "make it blue", parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", parts[1].ImageURL.URL)
}

func TestChatRequestWireFormat(t *testing.T) {
	req := ChatRequest{
		Model:      "google/gemini-2.5-flash-image-preview",
		Messages:   []ChatMessage{BuildUserMessage("a red circle", "")},
		Modalities: []string{"image", "text"},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "google/gemini-2.5-flash-image-preview", decoded["model"])

	msgs, ok := decoded["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "a red circle", first["content"])
}
