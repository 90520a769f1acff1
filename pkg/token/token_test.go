package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// 測試 GenerateJWT / ParseJWT
func TestGenerateAndParseJWT(t *testing.T) {
	// **情境 1: 產生後可解析出原始 claims**
	t.Run("產生後可解析出原始 claims", func(t *testing.T) {
		tokenStr, err := GenerateJWT("member-1", string(RoleMember), "video_service")
		assert.NoError(t, err)
		assert.NotEmpty(t, tokenStr)

		claims, err := ParseJWT(tokenStr)
		assert.NoError(t, err)
		assert.Equal(t, "member-1", claims.MemberID)
		assert.Equal(t, string(RoleMember), claims.Role)
		assert.Equal(t, "video_service", claims.Issuer)
	})

	// **情境 2: 亂數字串解析失敗**
	t.Run("亂數字串解析失敗", func(t *testing.T) {
		claims, err := ParseJWT("not a token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	// **情境 3: 過期 token 解析失敗**
	t.Run("過期 token 解析失敗", func(t *testing.T) {
		expired := Claims{
			MemberID: "member-1",
			Role:     string(RoleMember),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString(JWTSecret)
		assert.NoError(t, err)

		claims, err := ParseJWT(tokenStr)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
