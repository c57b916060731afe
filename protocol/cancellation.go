package protocol

// CancelledNotification 表示请求取消通知
// [重要] 发送方通知对端某个进行中的请求已被放弃
// RequestID: 被取消请求的唯一标识符
// Reason: 取消原因(可选)，用于调试目的
type CancelledNotification struct {
	RequestID RequestID `json:"requestId"`
	Reason    string    `json:"reason,omitempty"`
}

// NewCancelledNotification 创建新的取消通知
// requestID: 被取消请求的ID
// reason: 取消原因描述(可选)
func NewCancelledNotification(requestID RequestID, reason string) *CancelledNotification {
	return &CancelledNotification{
		RequestID: requestID,
		Reason:    reason,
	}
}
