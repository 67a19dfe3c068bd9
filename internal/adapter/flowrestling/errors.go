package flowrestling

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// 结果源错误分类：NotFound/Timeout 在匹配扫描中高频出现，调用方按类型静默跳过
var (
	ErrNotFound = errors.New("结果源无此记录")
	ErrTimeout  = errors.New("结果源请求超时")
)

// ProviderError 结果源在 notifications 中显式返回的平台侧错误
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("结果源平台错误: %s", e.Message)
}

// translateErr 将传输层错误归入错误分类（超时独立识别，其余原样包装）
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return err
}
