package client

import (
	"context"
	"encoding/json"

	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
)

// handleRequestWithPing 处理ping请求
// 返回: ping结果和错误信息
func (client *Client) handleRequestWithPing() (*protocol.PingResult, error) {
	return protocol.NewPingResult(), nil
}

// handleNotifyWithToolsListChanged 处理工具列表变更通知
// ctx: 上下文
// rawParams: 原始通知参数
// 返回: 错误信息
// 1. 解析通知参数
// 2. 调用通知处理器
func (client *Client) handleNotifyWithToolsListChanged(ctx context.Context, rawParams json.RawMessage) error {
	notify := &protocol.ToolListChangedNotification{}
	if len(rawParams) > 0 {
		if err := pkg.JSONUnmarshal(rawParams, notify); err != nil {
			return err
		}
	}
	return client.notifyHandler.ToolsListChanged(ctx, notify)
}
