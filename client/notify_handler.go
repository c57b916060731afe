package client

import (
	"context"
	"encoding/json"

	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
)

// NotifyHandler 定义通知处理器接口
// 实现自定义通知处理器时，可以结合BaseNotifyHandler按需实现
// ToolsListChanged: 处理工具列表变更通知
type NotifyHandler interface {
	ToolsListChanged(ctx context.Context, request *protocol.ToolListChangedNotification) error
}

// BaseNotifyHandler 提供通知处理器的默认实现
// Logger: 日志记录器实例
type BaseNotifyHandler struct {
	Logger pkg.Logger
}

// NewBaseNotifyHandler 创建基础通知处理器实例
// 返回: 基础通知处理器指针
func NewBaseNotifyHandler() *BaseNotifyHandler {
	return &BaseNotifyHandler{pkg.DefaultLogger}
}

// ToolsListChanged 处理工具列表变更通知
// ctx: 上下文
// request: 工具列表变更通知参数
// 返回: 错误信息
func (handler *BaseNotifyHandler) ToolsListChanged(_ context.Context, request *protocol.ToolListChangedNotification) error {
	return handler.defaultNotifyHandler(protocol.NotificationToolsListChanged, request)
}

func (handler *BaseNotifyHandler) defaultNotifyHandler(method protocol.Method, notify interface{}) error {
	b, err := json.Marshal(notify)
	if err != nil {
		return err
	}
	handler.Logger.Infof("receive notify: method=%s, notify=%s", method, b)
	return nil
}
