package promptpay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload(t *testing.T) {
	t.Run("手机号动态码", func(t *testing.T) {
		payload, err := BuildPayload("0812345678", 1234.50)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(payload, "000201"))
		assert.Contains(t, payload, "010212")            // 动态码
		assert.Contains(t, payload, "A000000677010111")  // PromptPay AID
		assert.Contains(t, payload, "0066812345678")     // 国际化手机号
		assert.Contains(t, payload, "5303764")           // THB
		assert.Contains(t, payload, "54071234.50")       // 金额
		assert.Contains(t, payload, "5802TH")
		// 末尾为 6304 + 4 位十六进制 CRC
		assert.Regexp(t, `6304[0-9A-F]{4}$`, payload)
	})

	t.Run("无金额静态码", func(t *testing.T) {
		payload, err := BuildPayload("0812345678", 0)
		require.NoError(t, err)
		assert.Contains(t, payload, "010211")
		assert.NotContains(t, payload, "5407")
	})

	t.Run("公民身份证号", func(t *testing.T) {
		payload, err := BuildPayload("1234567890123", 100)
		require.NoError(t, err)
		assert.Contains(t, payload, "02131234567890123")
	})

	t.Run("非法账户", func(t *testing.T) {
		_, err := BuildPayload("12345", 100)
		assert.Error(t, err)
	})

	t.Run("载荷可确定性重现", func(t *testing.T) {
		a, err := BuildPayload("0812345678", 500)
		require.NoError(t, err)
		b, err := BuildPayload("0812345678", 500)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestGenerateQR(t *testing.T) {
	payload, err := BuildPayload("0812345678", 1000)
	require.NoError(t, err)

	png, err := GenerateQR(payload, 256)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG 魔数
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestChecksum(t *testing.T) {
	// CRC-16/CCITT-FALSE 标准测试向量
	assert.Equal(t, uint16(0x29B1), checksum([]byte("123456789")))
}
