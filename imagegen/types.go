package imagegen

import "encoding/json"

// GenerateRequest 表示一次图像生成请求。
type GenerateRequest struct {
	// Prompt 必填，非空文本提示
	Prompt string `json:"prompt"`
	// EditImageBase64 可选，作为编辑底图的 data URI
	EditImageBase64 string `json:"editImageBase64,omitempty"`
}

// GenerateResult 表示一次成功的图像生成结果。
type GenerateResult struct {
	// ImageReference 是远程 URL 或内联 base64 data URI，成功时必非空
	ImageReference string `json:"imageReference"`
	// TextContent 仅当消息内容为纯字符串时填充
	TextContent string `json:"textContent"`
	// Model 实际响应的模型标识
	Model string `json:"model,omitempty"`
}

// =============================================================================
// 🌐 上游聊天补全协议类型（OpenAI 兼容）
// =============================================================================

// ContentPart 表示多模态消息内容列表中的一个条目。
type ContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *ImageURLRef `json:"image_url,omitempty"`
	// URL 兼容部分后端把引用直接放在条目上的写法
	URL string `json:"url,omitempty"`
}

// ImageURLRef 表示嵌套的图像引用对象。
type ImageURLRef struct {
	URL string `json:"url"`
}

// ChatMessage 表示上游请求消息。
// Content 为纯文本时是 string，带编辑底图时是 []ContentPart。
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ChatRequest 表示上游聊天补全请求。
type ChatRequest struct {
	Model      string        `json:"model"`
	Messages   []ChatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

// ImageEntry 表示响应消息 images 列表中的一个条目。
type ImageEntry struct {
	Type     string       `json:"type"`
	ImageURL *ImageURLRef `json:"image_url"`
}

// UnmarshalJSON 容忍裸字符串条目：
// 部分后端把 URL 或 data URI 直接放进 images 列表而不包对象。
func (e *ImageEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = ImageEntry{ImageURL: &ImageURLRef{URL: s}}
		return nil
	}

	type plainEntry ImageEntry
	var entry plainEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	*e = ImageEntry(entry)
	return nil
}

// ResponseMessage 表示上游响应中的助手消息。
// 不同模型后端返回的形状不一致，所有可能携带图像引用的字段都保留原始形式。
type ResponseMessage struct {
	Role string `json:"role"`
	// Content 可能是字符串，也可能是内容条目列表
	Content json.RawMessage `json:"content"`
	// Images 部分后端使用的独立图像列表
	Images []ImageEntry `json:"images"`
	// Image / ImageURL 部分后端把单个引用直接放在消息上
	Image    json.RawMessage `json:"image"`
	ImageURL json.RawMessage `json:"image_url"`
}

// ChatChoice 表示响应中的单个选项。
type ChatChoice struct {
	Index        int             `json:"index"`
	FinishReason string          `json:"finish_reason"`
	Message      ResponseMessage `json:"message"`
}

// ChatResponse 表示上游聊天补全响应。
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Created int64        `json:"created,omitempty"`
}

// BuildUserMessage 构建发给上游的用户消息。
// 无编辑底图时 content 为纯文本；有底图时为内容列表，
// 恰好包含一个文本条目和一个图像条目，顺序固定。
func BuildUserMessage(prompt, editImageBase64 string) ChatMessage {
	if editImageBase64 == "" {
		return ChatMessage{Role: "user", Content: prompt}
	}

	return ChatMessage{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURLRef{URL: editImageBase64}},
		},
	}
}
