// Package protocol 定义MCP协议的消息类型与方法
// 模块功能：提供JSON-RPC层之上的MCP请求/响应/通知结构定义
// 项目定位：garmin-mcp项目的协议层，供server/client/transport共用
package protocol

// Version 当前协议版本号
const Version = "2025-03-26"

// SupportedVersion 服务端可接受的协议版本集合
// [协议规范] 初始化握手时校验客户端协议版本
var SupportedVersion = map[string]struct{}{
	"2024-11-05": {},
	"2025-03-26": {},
}

// Method 定义MCP方法名类型
type Method string

// MCP方法名集合
// [重要] server/receive.go的请求分发依赖这些常量
const (
	Initialize Method = "initialize"
	Ping       Method = "ping"

	ToolsList Method = "tools/list"
	ToolsCall Method = "tools/call"

	NotificationInitialized      Method = "notifications/initialized"
	NotificationCancelled        Method = "notifications/cancelled"
	NotificationToolsListChanged Method = "notifications/tools/list_changed"
)

// 角色消息类型别名
// [设计决策] 仅作语义标注，不做编译期约束
type (
	ClientRequest  interface{}
	ClientResponse interface{}
	ClientNotify   interface{}

	ServerRequest  interface{}
	ServerResponse interface{}
	ServerNotify   interface{}
)
