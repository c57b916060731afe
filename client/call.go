package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
)

// initialization 执行客户端初始化流程
// ctx: 上下文
// request: 初始化请求
// 返回: 初始化结果和错误信息
// 1. 设置协议版本
// 2. 调用服务端初始化方法
// 3. 检查协议版本是否支持
// 4. 发送初始化完成通知
// 5. 更新客户端和服务端信息
// 6. 标记客户端为就绪状态
func (client *Client) initialization(ctx context.Context, request *protocol.InitializeRequest) (*protocol.InitializeResult, error) {
	request.ProtocolVersion = protocol.Version

	response, err := client.callServer(ctx, protocol.Initialize, request)
	if err != nil {
		return nil, err
	}
	var result protocol.InitializeResult
	if err = pkg.JSONUnmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if _, ok := protocol.SupportedVersion[result.ProtocolVersion]; !ok {
		return nil, fmt.Errorf("protocol version not supported, supported lastest version is %v", protocol.Version)
	}

	if err = client.sendNotification4Initialized(ctx); err != nil {
		return nil, fmt.Errorf("failed to send InitializedNotification: %w", err)
	}

	client.clientInfo = &request.ClientInfo
	client.clientCapabilities = &request.Capabilities

	client.serverInfo = &result.ServerInfo
	client.serverCapabilities = &result.Capabilities
	client.serverInstructions = result.Instructions

	client.ready.Store(true)
	return &result, nil
}

// Ping 发送ping请求检测服务端是否存活
// ctx: 上下文，用于控制请求超时和取消
// request: ping请求参数
// 返回: ping结果和错误信息
// 注意: 此方法用于心跳检测和连接保活
func (client *Client) Ping(ctx context.Context, request *protocol.PingRequest) (*protocol.PingResult, error) {
	response, err := client.callServer(ctx, protocol.Ping, request)
	if err != nil {
		return nil, err
	}

	var result protocol.PingResult
	if err := pkg.JSONUnmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ListTools 获取工具列表
// ctx: 上下文，用于控制请求超时和取消
// cursor: 分页游标，空字符串表示第一页
// 返回: 工具列表结果和错误信息
// 1. 检查服务端是否支持工具功能
// 2. 调用服务端获取工具列表方法
// 3. 解析响应数据
// 注意: 结果中NextCursor非空表示还有后续页
func (client *Client) ListTools(ctx context.Context, cursor string) (*protocol.ListToolsResult, error) {
	if client.serverCapabilities.Tools == nil {
		return nil, pkg.ErrServerNotSupport
	}

	response, err := client.callServer(ctx, protocol.ToolsList, protocol.NewListToolsRequest(cursor))
	if err != nil {
		return nil, err
	}

	var result protocol.ListToolsResult
	if err := pkg.JSONUnmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// CallTool 调用指定工具
// ctx: 上下文，用于控制请求超时和取消
// request: 调用工具请求参数，包含工具名和输入参数
// 返回: 工具调用结果和错误信息
// 注意: 工具执行结果以内容列表承载
func (client *Client) CallTool(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	if client.serverCapabilities.Tools == nil {
		return nil, pkg.ErrServerNotSupport
	}

	response, err := client.callServer(ctx, protocol.ToolsCall, request)
	if err != nil {
		return nil, err
	}

	var result protocol.CallToolResult
	if err := pkg.JSONUnmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

func (client *Client) sendNotification4Initialized(ctx context.Context) error {
	return client.sendMsgWithNotification(ctx, protocol.NotificationInitialized, protocol.NewInitializedNotification())
}

// SendNotification4Cancelled 发送请求取消通知
// [注意] 取消通知是尽力而为的，服务端可能已完成对应请求
func (client *Client) SendNotification4Cancelled(ctx context.Context, requestID protocol.RequestID, reason string) error {
	return client.sendMsgWithNotification(ctx, protocol.NotificationCancelled, protocol.NewCancelledNotification(requestID, reason))
}

// Responsible for request and response assembly
// callServer 调用服务端方法
// ctx: 上下文
// method: 方法名
// params: 请求参数
// 返回: 原始响应数据和错误信息
// 1. 检查客户端是否就绪(除初始化和ping方法)
// 2. 生成请求ID并创建响应通道
// 3. 发送请求消息
// 4. 等待响应或超时
// 5. 处理错误响应
func (client *Client) callServer(ctx context.Context, method protocol.Method, params protocol.ClientRequest) (json.RawMessage, error) {
	if !client.ready.Load() && (method != protocol.Initialize && method != protocol.Ping) {
		return nil, errors.New("callServer: client not ready")
	}

	requestID := strconv.FormatInt(atomic.AddInt64(&client.requestID, 1), 10)
	respChan := make(chan *protocol.JSONRPCResponse, 1)
	client.reqID2respChan.Set(requestID, respChan)
	defer client.reqID2respChan.Remove(requestID)

	if err := client.sendMsgWithRequest(ctx, requestID, method, params); err != nil {
		return nil, fmt.Errorf("callServer: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case response := <-respChan:
		if err := response.Error; err != nil {
			return nil, pkg.NewResponseError(err.Code, err.Message, err.Data)
		}
		return response.RawResult, nil
	}
}
