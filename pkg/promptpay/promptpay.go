// Package promptpay 生成泰国 PromptPay 的 EMVCo 收款二维码
package promptpay

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// EMVCo 数据对象 ID
const (
	idPayloadFormat       = "00"
	idPointOfInitiation   = "01"
	idMerchantAccountInfo = "29"
	idTransactionCurrency = "53"
	idTransactionAmount   = "54"
	idCountryCode         = "58"
	idCRC                 = "63"

	payloadFormatEMVCo = "01"
	poiDynamic         = "12" // 含金额的一次性二维码
	poiStatic          = "11"

	promptPayAID  = "A000000677010111"
	currencyTHB   = "764"
	countryCodeTH = "TH"
)

// 商户账户子字段
const (
	subIDAID      = "00"
	subIDPhone    = "01"
	subIDNationID = "02"
	subIDEWallet  = "03"
)

// BuildPayload 构造 PromptPay EMVCo 载荷
// target 为手机号（0xxxxxxxxx）、公民身份证号或电子钱包 ID
// amount 大于 0 时生成含金额的动态码
func BuildPayload(target string, amount float64) (string, error) {
	accountSubID, formatted, err := normalizeTarget(target)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(tlv(idPayloadFormat, payloadFormatEMVCo))
	if amount > 0 {
		b.WriteString(tlv(idPointOfInitiation, poiDynamic))
	} else {
		b.WriteString(tlv(idPointOfInitiation, poiStatic))
	}

	merchantInfo := tlv(subIDAID, promptPayAID) + tlv(accountSubID, formatted)
	b.WriteString(tlv(idMerchantAccountInfo, merchantInfo))
	b.WriteString(tlv(idTransactionCurrency, currencyTHB))
	if amount > 0 {
		b.WriteString(tlv(idTransactionAmount, fmt.Sprintf("%.2f", amount)))
	}
	b.WriteString(tlv(idCountryCode, countryCodeTH))

	// CRC 覆盖包含其自身 ID 和长度在内的全部载荷
	payload := b.String() + idCRC + "04"
	crc := checksum([]byte(payload))
	return fmt.Sprintf("%s%04X", payload, crc), nil
}

// GenerateQR 将载荷渲染为 PNG 二维码
func GenerateQR(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}

// normalizeTarget 识别并格式化收款账户
func normalizeTarget(target string) (subID, formatted string, err error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, target)

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		// 手机号转为 0066 前缀的国际格式
		return subIDPhone, "0066" + digits[1:], nil
	case len(digits) == 13:
		return subIDNationID, digits, nil
	case len(digits) == 15:
		return subIDEWallet, digits, nil
	}
	return "", "", fmt.Errorf("invalid promptpay target: %q", target)
}

// tlv 编码单个 TLV 数据对象
func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// checksum 计算 CRC-16/CCITT-FALSE 校验值（EMVCo 规定）
func checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
