package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/transport"
)

// handleRequestWithPing 处理心跳请求
// [注意] 心跳不携带业务数据，直接返回空结果
func (server *Server) handleRequestWithPing() (*protocol.PingResult, error) {
	return protocol.NewPingResult(), nil
}

// handleRequestWithInitialize 处理初始化请求
// 功能流程：
// 1. 反序列化初始化参数
// 2. 有状态HTTP模式下为新连接创建会话并回传会话ID
// 3. 协商协议版本(客户端版本受支持则沿用，否则回退服务端版本)
// 4. 缓存客户端信息到会话状态
// [重要] 会话在收到initialized通知前不接受业务请求
func (server *Server) handleRequestWithInitialize(ctx context.Context, sessionID string, rawParams json.RawMessage) (*protocol.InitializeResult, error) {
	request := &protocol.InitializeRequest{}
	if err := pkg.JSONUnmarshal(rawParams, request); err != nil {
		return nil, err
	}

	if sessionID == "" {
		if v, ok := ctx.Value(transport.SessionIDForReturnKey{}).(*transport.SessionIDForReturn); ok {
			sessionID = server.sessionManager.CreateSession()
			v.SessionID = sessionID
		}
	}

	version := protocol.Version
	if _, ok := protocol.SupportedVersion[request.ProtocolVersion]; ok {
		version = request.ProtocolVersion
	}

	if s, ok := server.sessionManager.GetSession(sessionID); ok {
		s.SetClientInfo(&request.ClientInfo, &request.Capabilities)
		s.SetReceivedInitRequest()
	}

	result := protocol.NewInitializeResult(*server.serverInfo, *server.capabilities, server.instructions)
	result.ProtocolVersion = version
	return result, nil
}

// handleNotifyWithInitialized 处理初始化完成通知
// [注意] 收到该通知后会话进入就绪状态，开始接受业务请求
func (server *Server) handleNotifyWithInitialized(sessionID string, rawParams json.RawMessage) error {
	if len(rawParams) > 0 {
		notify := &protocol.InitializedNotification{}
		if err := pkg.JSONUnmarshal(rawParams, notify); err != nil {
			return err
		}
	}

	if sessionID == "" {
		return nil
	}

	s, ok := server.sessionManager.GetSession(sessionID)
	if !ok {
		return pkg.ErrLackSession
	}
	if !s.GetReceivedInitRequest() {
		return pkg.ErrSessionHasNotInitialized
	}
	s.SetReady()
	return nil
}

// handleNotifyWithCancelled 处理请求取消通知
// [设计决策] 工具调用在独立goroutine中执行且不保留requestID索引，
// 取消通知仅记录日志，进行中的调用由上下文超时兜底
func (server *Server) handleNotifyWithCancelled(sessionID string, rawParams json.RawMessage) error {
	notify := &protocol.CancelledNotification{}
	if err := pkg.JSONUnmarshal(rawParams, notify); err != nil {
		return err
	}
	server.logger.Infof("request cancelled by client: sessionID=%s, requestID=%v, reason=%s", sessionID, notify.RequestID, notify.Reason)
	return nil
}

// toolListCursor tools/list分页游标载荷
type toolListCursor struct {
	Page int `json:"page"`
}

// encodeToolListCursor 编码tools/list分页游标
// [算法说明] JSON序列化后做URL安全的base64编码
func encodeToolListCursor(page int) string {
	data, _ := json.Marshal(toolListCursor{Page: page})
	return base64.URLEncoding.EncodeToString(data)
}

// decodeToolListCursor 解码tools/list分页游标
// [注意] 非法游标统一返回InvalidParams语义的错误
func decodeToolListCursor(cursor string) (int, error) {
	data, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %v", err)
	}
	var c toolListCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return 0, fmt.Errorf("invalid cursor: %v", err)
	}
	if c.Page < 1 {
		return 0, fmt.Errorf("invalid cursor: page=%d", c.Page)
	}
	return c.Page, nil
}

// handleRequestWithListTools 处理工具列表请求
// 功能说明：
// 1. 按注册顺序快照工具列表，保证分页稳定
// 2. 游标缺省返回第一页
// 3. 还有后续页时返回nextCursor
func (server *Server) handleRequestWithListTools(rawParams json.RawMessage) (*protocol.ListToolsResult, error) {
	request := &protocol.ListToolsRequest{}
	if len(rawParams) > 0 {
		if err := pkg.JSONUnmarshal(rawParams, request); err != nil {
			return nil, err
		}
	}

	server.toolsMu.Lock()
	names := make([]string, len(server.toolNames))
	copy(names, server.toolNames)
	server.toolsMu.Unlock()

	tools := make([]*protocol.Tool, 0, len(names))
	for _, name := range names {
		if entry, ok := server.tools.Load(name); ok {
			tools = append(tools, entry.tool)
		}
	}

	if server.toolListPageSize <= 0 {
		return &protocol.ListToolsResult{Tools: tools}, nil
	}

	page := 1
	if request.Cursor != "" {
		var err error
		if page, err = decodeToolListCursor(request.Cursor); err != nil {
			return nil, fmt.Errorf("%w: %s", pkg.ErrRequestInvalid, err.Error())
		}
	}

	start := (page - 1) * server.toolListPageSize
	if start >= len(tools) {
		return &protocol.ListToolsResult{Tools: []*protocol.Tool{}}, nil
	}

	end := start + server.toolListPageSize
	nextCursor := ""
	if end < len(tools) {
		nextCursor = encodeToolListCursor(page + 1)
	} else {
		end = len(tools)
	}

	return &protocol.ListToolsResult{Tools: tools[start:end], NextCursor: nextCursor}, nil
}

// handleRequestWithCallTool 处理工具调用请求
// 功能流程：
// 1. 反序列化调用参数
// 2. 查找已注册的工具
// 3. 执行工具处理函数
// [注意] 未注册的工具名返回InvalidParams语义的错误
func (server *Server) handleRequestWithCallTool(ctx context.Context, rawParams json.RawMessage) (*protocol.CallToolResult, error) {
	request := &protocol.CallToolRequest{}
	if err := pkg.JSONUnmarshal(rawParams, request); err != nil {
		return nil, err
	}

	entry, ok := server.tools.Load(request.Name)
	if !ok {
		return nil, fmt.Errorf("%w: tool=%s", pkg.ErrRequestInvalid, request.Name)
	}

	result, err := entry.handler(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", request.Name, err)
	}
	return result, nil
}
