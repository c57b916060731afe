// Package tools 将 Garmin Connect 查询能力封装为 MCP 工具
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

// 分页与查询上限
const (
	maxPageLimit     = 50 // 单页条数上限
	maxDayPageLimit  = 30 // 按天分页的单页天数上限
	defaultPageLimit = 10
	maxRangeDays     = 30 // 日期区间跨度上限(天)
)

// handlers 持有所有工具共享的依赖
// [设计决策]: 依赖注入而非包级单例,测试可以用假 API 实现直接构造
type handlers struct {
	api    garmin.API
	logger pkg.Logger
}

// RegisterAll 把全部工具注册到 MCP 服务端
func RegisterAll(srv *server.Server, api garmin.API, logger pkg.Logger) error {
	h := &handlers{api: api, logger: logger}

	for _, reg := range []func(*server.Server) error{
		h.registerActivityTools,
		h.registerWorkoutTools,
		h.registerHealthTools,
		h.registerDeviceTools,
		h.registerGearTools,
		h.registerWeightTools,
		h.registerRecordTools,
		h.registerProfileTools,
		h.registerAnalysisTools,
	} {
		if err := reg(srv); err != nil {
			return err
		}
	}
	return nil
}

// register 生成工具描述并注册,schema 生成失败直接上抛
func register(srv *server.Server, name, description string, reqStruct any, handler server.ToolHandlerFunc) error {
	tool, err := protocol.NewTool(name, description, reqStruct)
	if err != nil {
		return fmt.Errorf("build tool %s: %w", name, err)
	}
	srv.RegisterTool(tool, handler)
	return nil
}

// textResult 成功响应,内容为信封 JSON 字符串
func textResult(s string) *protocol.CallToolResult {
	return protocol.NewCallToolResult([]protocol.Content{protocol.NewTextContent(s)}, false)
}

// errResult 错误响应
// [重要]: 错误以信封字符串下发并置 IsError,不向协议层抛原始 error,
// LLM 拿到的是结构化的 type/message/suggestions 而非散文错误
func (h *handlers) errResult(toolName string, err error) (*protocol.CallToolResult, error) {
	h.logger.Warnf("tool %s failed: %v", toolName, err)
	body := garmin.BuildErrorResponseFromErr(err)
	return protocol.NewCallToolResult([]protocol.Content{protocol.NewTextContent(body)}, true), nil
}

// okResult 构造成功信封,序列化失败降级为错误信封
func (h *handlers) okResult(toolName string, data any, analysis, metadata map[string]any, pagination *garmin.PaginationInfo) (*protocol.CallToolResult, error) {
	body, err := garmin.BuildResponse(data, analysis, metadata, pagination)
	if err != nil {
		return h.errResult(toolName, err)
	}
	return textResult(body), nil
}

// unmarshalArgs 校验并反序列化工具入参
// [注意]: 参数全部可选的工具允许省略 arguments,按空对象处理
func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return protocol.VerifyAndUnmarshal(raw, v)
}

// defaultLimit 归一化分页条数,0 取默认值
func defaultLimit(limit int) int {
	if limit == 0 {
		return defaultPageLimit
	}
	return limit
}
