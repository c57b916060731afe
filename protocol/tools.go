package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

// ListToolsRequest 表示列出可用工具的请求
// [协议规范] 遵循JSON-RPC 2.0规范
// Cursor: 分页游标(可选)，为空表示第一页
type ListToolsRequest struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult 表示列出工具请求的响应
// [重要] 包含工具列表和分页游标
// 字段说明:
// - Tools: 工具列表
// - NextCursor: 分页游标(可选)
type ListToolsResult struct {
	Tools      []*Tool `json:"tools"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// Tool 定义客户端可调用的工具
// [设计决策] 使用JSON Schema定义输入参数
// 字段说明:
// - Name: 工具唯一标识
// - Description: 工具描述(可选)
// - InputSchema: 输入参数schema
type Tool struct {
	// Name is the unique identifier of the tool
	Name string `json:"name"`

	// Description is a human-readable description of the tool
	Description string `json:"description,omitempty"`

	// InputSchema defines the expected parameters for the tool using JSON Schema
	InputSchema InputSchema `json:"inputSchema"`

	RawInputSchema json.RawMessage `json:"-"`
}

// MarshalJSON 实现Tool的JSON序列化
// [注意] 处理RawInputSchema和InputSchema的冲突
func (t *Tool) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 3)

	m["name"] = t.Name
	if t.Description != "" {
		m["description"] = t.Description
	}

	// Determine which schema to use
	if t.RawInputSchema != nil {
		if t.InputSchema.Type != "" {
			return nil, fmt.Errorf("inputSchema field conflict")
		}
		m["inputSchema"] = t.RawInputSchema
	} else {
		// Use the structured InputSchema
		m["inputSchema"] = t.InputSchema
	}

	return json.Marshal(m)
}

type InputSchemaType string

// InputSchemaType 定义输入schema类型
// [协议规范] 目前仅支持object类型
const Object InputSchemaType = "object"

// InputSchema 定义工具的输入参数schema
// [重要] 用于参数验证和文档生成
type InputSchema struct {
	Type       InputSchemaType      `json:"type"`
	Properties map[string]*Property `json:"properties,omitempty"`
	Required   []string             `json:"required,omitempty"`
}

// CallToolRequest 表示调用特定工具的请求
// [安全要求] 必须验证工具名和参数
// 字段说明:
// - Name: 工具名
// - Arguments: 参数键值对
// - RawArguments: 原始参数JSON(可选)
type CallToolRequest struct {
	Name         string                 `json:"name"`
	Arguments    map[string]interface{} `json:"arguments,omitempty"`
	RawArguments json.RawMessage        `json:"-"`
}

// UnmarshalJSON 实现CallToolRequest的反序列化
// [注意] 处理Arguments和RawArguments的转换
func (r *CallToolRequest) UnmarshalJSON(data []byte) error {
	type alias CallToolRequest
	temp := &struct {
		Arguments json.RawMessage `json:"arguments,omitempty"`
		*alias
	}{
		alias: (*alias)(r),
	}

	if err := pkg.JSONUnmarshal(data, temp); err != nil {
		return err
	}

	r.RawArguments = temp.Arguments

	if len(r.RawArguments) != 0 {
		if err := pkg.JSONUnmarshal(r.RawArguments, &r.Arguments); err != nil {
			return err
		}
	}

	return nil
}

// MarshalJSON 实现CallToolRequest的序列化
// [性能提示] 优先使用RawArguments避免重复序列化
func (r *CallToolRequest) MarshalJSON() ([]byte, error) {
	type alias CallToolRequest
	temp := &struct {
		Arguments json.RawMessage `json:"arguments,omitempty"`
		*alias
	}{
		alias: (*alias)(r),
	}

	if len(r.RawArguments) > 0 {
		temp.Arguments = r.RawArguments
	} else if r.Arguments != nil {
		var err error
		temp.Arguments, err = json.Marshal(r.Arguments)
		if err != nil {
			return nil, err
		}
	}

	return json.Marshal(temp)
}

// CallToolResult 表示工具调用的响应
// [重要] 工具结果以内容列表承载，文本内容为响应信封字符串
// 字段说明:
// - Content: 内容列表
// - IsError: 是否为错误结果(可选)
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// UnmarshalJSON 实现CallToolResult的反序列化
// [算法说明] 依据type字段判定内容类型
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	type Alias CallToolResult
	aux := &struct {
		Content []json.RawMessage `json:"content"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}
	if err := pkg.JSONUnmarshal(data, &aux); err != nil {
		return err
	}

	r.Content = make([]Content, len(aux.Content))
	for i, content := range aux.Content {
		switch gjsonType(content) {
		case "text":
			var textContent *TextContent
			if err := pkg.JSONUnmarshal(content, &textContent); err != nil {
				return err
			}
			r.Content[i] = textContent
		case "image":
			var imageContent *ImageContent
			if err := pkg.JSONUnmarshal(content, &imageContent); err != nil {
				return err
			}
			r.Content[i] = imageContent
		default:
			return fmt.Errorf("unknown content type at index %d", i)
		}
	}

	return nil
}

// gjsonType 读取内容对象的type字段
func gjsonType(content json.RawMessage) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(content, &probe); err != nil {
		return ""
	}
	return probe.Type
}

// Content 工具结果内容接口
type Content interface {
	GetType() string
}

// TextContent 文本内容
// Type: 固定为"text"
// Text: 文本载荷
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *TextContent) GetType() string {
	return c.Type
}

// ImageContent 图片内容
// Data: base64编码的图片数据
// MimeType: 图片MIME类型
type ImageContent struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

func (c *ImageContent) GetType() string {
	return c.Type
}

// NewTextContent 创建文本内容
// text: 文本载荷
func NewTextContent(text string) *TextContent {
	return &TextContent{Type: "text", Text: text}
}

// NewCallToolResult 创建工具调用结果
// content: 内容列表
// isError: 是否为错误结果
func NewCallToolResult(content []Content, isError bool) *CallToolResult {
	return &CallToolResult{Content: content, IsError: isError}
}

// ToolListChangedNotification 表示工具列表变更通知
// [协议规范] 使用_meta字段传递扩展信息
type ToolListChangedNotification struct {
	Meta map[string]interface{} `json:"_meta,omitempty"`
}

// NewTool 创建工具实例
// [设计决策] 从结构体生成输入schema
// 参数说明:
// - name: 工具名
// - description: 工具描述
// - inputReqStruct: 输入参数结构体
func NewTool(name string, description string, inputReqStruct interface{}) (*Tool, error) {
	schema, err := generateSchemaFromReqStruct(inputReqStruct)
	if err != nil {
		return nil, err
	}

	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: *schema,
	}, nil
}

// NewListToolsRequest 创建列出工具请求
// cursor: 分页游标(可选)
func NewListToolsRequest(cursor string) *ListToolsRequest {
	return &ListToolsRequest{Cursor: cursor}
}

// NewToolListChangedNotification 创建工具列表变更通知
func NewToolListChangedNotification() *ToolListChangedNotification {
	return &ToolListChangedNotification{}
}
