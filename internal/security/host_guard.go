package security

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrPrivateHost は内部ネットワークを指すホストに対するエラー。
var ErrPrivateHost = errors.New("host points to a private network")

// blockedNetworks は外部公開URLとして受け付けないネットワーク範囲。
// パッケージ初期化時に1回だけパースする。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// blockedHostSuffixes は内部向けとみなすホスト名のサフィックス。
var blockedHostSuffixes = []string{".localhost", ".local", ".internal"}

// CheckPublicHost はURLのホスト部が公開ネットワークを指しているかをDNS解決なしで検証する。
// 投稿画像のhttps URLのように、クライアントへそのまま返す外部参照の登録時に使う。
func CheckPublicHost(host string) error {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return errors.New("empty host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("%w: %s", ErrPrivateHost, ip.String())
		}
		return nil
	}

	if host == "localhost" {
		return fmt.Errorf("%w: %s", ErrPrivateHost, host)
	}
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return fmt.Errorf("%w: %s", ErrPrivateHost, host)
		}
	}
	return nil
}

// isBlockedIP はIPアドレスがブロック対象のネットワーク範囲に含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
