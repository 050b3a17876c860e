package persistence

import "github.com/weisyn/dualchain/pkg/types"

// 状态键空间（与 changelog/ 前缀并存于同一个 BadgerDB）：
//
//	hdr/<magic>/<hash>     区块头池：hash || 序列化区块头
//	active/<magic>/<hash>  活跃链成员
//	head/<magic>           链头：hash || 序列化区块头
//	proof/<magic>          主链嵌入证明：序列化参考链区块头
var (
	headerPrefix = []byte("hdr/")
	activePrefix = []byte("active/")
	headPrefix   = []byte("head/")
	proofPrefix  = []byte("proof/")
)

var activeMarker = []byte{1}

func chainKey(prefix []byte, magic types.ChainMagic, hash []byte) []byte {
	key := make([]byte, 0, len(prefix)+5+len(hash))
	key = append(key, prefix...)
	key = append(key, magic[:]...)
	if hash != nil {
		key = append(key, '/')
		key = append(key, hash...)
	}
	return key
}

func headerKey(magic types.ChainMagic, hash []byte) []byte {
	return chainKey(headerPrefix, magic, hash)
}
func activeKey(magic types.ChainMagic, hash []byte) []byte {
	return chainKey(activePrefix, magic, hash)
}
func headKey(magic types.ChainMagic) []byte  { return chainKey(headPrefix, magic, nil) }
func proofKey(magic types.ChainMagic) []byte { return chainKey(proofPrefix, magic, nil) }

// chainPrefix 某条链在某个前缀下的扫描前缀
func chainPrefix(prefix []byte, magic types.ChainMagic) []byte {
	return append(chainKey(prefix, magic, nil), '/')
}
