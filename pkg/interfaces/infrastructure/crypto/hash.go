// Package crypto 定义区块头身份哈希接口。
//
// 原始密码学原语不在本仓库实现范围内，存储与分叉选择只通过 Hasher 消费摘要。
package crypto

// Hasher 区块头身份哈希
//
// 输入为区块头原始字节（参考链 80 字节、主链 100 字节），输出为该链的身份哈希。
type Hasher interface {
	// Digest 计算摘要，长度恒为 Size()
	Digest(data []byte) []byte

	// Size 摘要字节数
	Size() int
}
