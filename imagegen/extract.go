package imagegen

import (
	"encoding/json"
	"regexp"
)

// =============================================================================
// 🔍 图像引用提取链
// =============================================================================
// 上游响应形状不稳定，按固定顺序尝试四种提取策略，
// 第一个产出非空引用的策略胜出。

// Extractor 从响应消息中提取图像引用，未命中返回空字符串。
type Extractor func(msg *ResponseMessage) string

// extractors 按优先级排列，顺序不可变更。
var extractors = []Extractor{
	ExtractFromImageList,
	ExtractFromDirectField,
	ExtractFromContentList,
	ExtractFromContentString,
}

// base64DataURIPattern 匹配内联 base64 图像 data URI。
var base64DataURIPattern = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+`)

// ExtractImageReference 依次运行提取链，返回第一个非空引用。
func ExtractImageReference(msg *ResponseMessage) (string, bool) {
	if msg == nil {
		return "", false
	}
	for _, extract := range extractors {
		if ref := extract(msg); ref != "" {
			return ref, true
		}
	}
	return "", false
}

// ExtractFromImageList 策略 1：读取消息的 images 列表。
func ExtractFromImageList(msg *ResponseMessage) string {
	for _, entry := range msg.Images {
		if entry.ImageURL != nil && entry.ImageURL.URL != "" {
			return entry.ImageURL.URL
		}
	}
	return ""
}

// ExtractFromDirectField 策略 2：读取消息上的单个图像引用字段。
// image 与 image_url 均可能是字符串或 {url: ...} 对象。
func ExtractFromDirectField(msg *ResponseMessage) string {
	if ref := decodeImageRef(msg.Image); ref != "" {
		return ref
	}
	return decodeImageRef(msg.ImageURL)
}

// ExtractFromContentList 策略 3：扫描内容列表中标记为图像的条目。
// 支持 {image_url: {url}} 与 {url} 两种子形状。
func ExtractFromContentList(msg *ResponseMessage) string {
	var parts []ContentPart
	if err := json.Unmarshal(msg.Content, &parts); err != nil {
		return ""
	}

	for _, part := range parts {
		if part.Type != "image_url" && part.Type != "image" {
			continue
		}
		if part.ImageURL != nil && part.ImageURL.URL != "" {
			return part.ImageURL.URL
		}
		if part.URL != "" {
			return part.URL
		}
	}
	return ""
}

// ExtractFromContentString 策略 4：在字符串内容中匹配内联 base64 data URI。
func ExtractFromContentString(msg *ResponseMessage) string {
	text, ok := contentAsString(msg)
	if !ok {
		return ""
	}
	return base64DataURIPattern.FindString(text)
}

// ExtractTextContent 返回消息的纯字符串内容。
// 内容为结构化列表时返回空串，文本不从列表分支中提取。
func ExtractTextContent(msg *ResponseMessage) string {
	if msg == nil {
		return ""
	}
	text, _ := contentAsString(msg)
	return text
}

// contentAsString 尝试把 content 解码为字符串。
func contentAsString(msg *ResponseMessage) (string, bool) {
	if len(msg.Content) == 0 {
		return "", false
	}
	var text string
	if err := json.Unmarshal(msg.Content, &text); err != nil {
		return "", false
	}
	return text, true
}

// decodeImageRef 解码可能是字符串或 {url: ...} 对象的图像引用字段。
func decodeImageRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var ref ImageURLRef
	if err := json.Unmarshal(raw, &ref); err == nil {
		return ref.URL
	}
	return ""
}
