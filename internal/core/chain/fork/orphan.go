package fork

import (
	"sync"
	"time"

	"github.com/weisyn/dualchain/pkg/types"
)

// orphanEntry 孤块
type orphanEntry struct {
	header     types.StoredHeader
	parentHash []byte
	expires    time.Time
}

// orphanPool 父区块未知的候选区块头
//
// 按 (链, 父哈希) 索引，父区块被接受后取出子区块重新提交。
// 容量满时淘汰最早过期的条目。
type orphanPool struct {
	mu       sync.Mutex
	limit    int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*orphanEntry
	byParent map[string][]string
}

func newOrphanPool(limit int, ttl time.Duration, now func() time.Time) *orphanPool {
	return &orphanPool{
		limit:    limit,
		ttl:      ttl,
		now:      now,
		entries:  make(map[string]*orphanEntry),
		byParent: make(map[string][]string),
	}
}

func poolKey(magic types.ChainMagic, hash []byte) string {
	return magic.String() + string(hash)
}

// add 加入孤块；已存在时只刷新过期时间
func (p *orphanPool) add(header types.StoredHeader) {
	if p.limit <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.expireLocked(now)

	key := poolKey(header.Chain(), header.HashBytes())
	if e, ok := p.entries[key]; ok {
		e.expires = now.Add(p.ttl)
		return
	}
	for len(p.entries) >= p.limit {
		p.evictOldestLocked()
	}

	parent := header.ParentHash()
	p.entries[key] = &orphanEntry{header: header, parentHash: parent, expires: now.Add(p.ttl)}
	pk := poolKey(header.Chain(), parent)
	p.byParent[pk] = append(p.byParent[pk], key)
}

// takeChildren 取出（并移除）以 parentHash 为父的全部未过期孤块
func (p *orphanPool) takeChildren(magic types.ChainMagic, parentHash []byte) []types.StoredHeader {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.expireLocked(p.now())

	keys := append([]string(nil), p.byParent[poolKey(magic, parentHash)]...)
	out := make([]types.StoredHeader, 0, len(keys))
	for _, key := range keys {
		if e, ok := p.entries[key]; ok {
			out = append(out, e.header)
			p.removeLocked(key)
		}
	}
	return out
}

func (p *orphanPool) count(magic types.ChainMagic) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.entries {
		if e.header.Chain() == magic {
			n++
		}
	}
	return n
}

func (p *orphanPool) expireLocked(now time.Time) {
	for key, e := range p.entries {
		if !now.Before(e.expires) {
			p.removeLocked(key)
		}
	}
}

func (p *orphanPool) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	for key, e := range p.entries {
		if oldest == "" || e.expires.Before(oldestAt) {
			oldest, oldestAt = key, e.expires
		}
	}
	if oldest != "" {
		p.removeLocked(oldest)
	}
}

func (p *orphanPool) removeLocked(key string) {
	e, ok := p.entries[key]
	if !ok {
		return
	}
	delete(p.entries, key)

	pk := poolKey(e.header.Chain(), e.parentHash)
	siblings := p.byParent[pk]
	for i, k := range siblings {
		if k == key {
			siblings = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(p.byParent, pk)
	} else {
		p.byParent[pk] = siblings
	}
}
