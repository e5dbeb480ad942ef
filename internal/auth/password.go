package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はbcryptの既定コスト。
const DefaultBcryptCost = bcrypt.DefaultCost

// MaxPasswordBytes はbcryptが受け付けるパスワードの最大バイト長。
const MaxPasswordBytes = 72

// HashPassword は平文パスワードをbcryptでハッシュ化する。
// ソルトは呼び出しごとにランダムに生成されるため、同じ入力でも出力は毎回異なる。
// 範囲外のコストはDefaultBcryptCostとして扱う。
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードがハッシュと一致するかを返す。
// 不正な形式のハッシュはfalseとして扱う。
func VerifyPassword(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
