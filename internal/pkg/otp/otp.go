package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const trackingChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NumericCode 生成 n 位数字验证码
// 用于收货验证码，存储在订单上，由配送员收货时核对
func NumericCode(n int) string {
	code := make([]byte, n)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand 不可用时退化为时间纳秒，验证码不承担密码学职责
			code[i] = byte('0' + time.Now().UnixNano()%10)
			continue
		}
		code[i] = byte('0' + num.Int64())
	}
	return string(code)
}

// OrderNumber 生成订单号，方案与物流单号一致
func OrderNumber() string {
	return "ORD" + randomTail()
}

// TrackingNumber 生成物流单号：前缀 + 截断时间戳 + 随机后缀
// 唯一性是尽力而为，不做碰撞检查，业务上不以单号为键
func TrackingNumber() string {
	return "TRK" + randomTail()
}

func randomTail() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingChars))))
		if err != nil {
			suffix[i] = trackingChars[time.Now().UnixNano()%int64(len(trackingChars))]
			continue
		}
		suffix[i] = trackingChars[num.Int64()]
	}
	return fmt.Sprintf("%s%s", time.Now().Format("060102150405"), string(suffix))
}
