package fork

import (
	"fmt"

	"github.com/weisyn/dualchain/pkg/types"
)

// compareWithHead 按累积工作量比较候选与当前链头
//
// 返回 nil 表示候选胜出；工作量相等或更小时返回对应的分类错误。
// 空链（head 为 nil）时任何候选都胜出。
func compareWithHead(candidate, head types.StoredHeader) error {
	if types.IsNilHeader(head) {
		return nil
	}
	switch types.CompareWork(candidate, head) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: work=%s", types.ErrEqualWork, candidate.CumulativeWork())
	default:
		return fmt.Errorf("%w: candidate=%s head=%s", types.ErrLowerWork,
			candidate.CumulativeWork(), head.CumulativeWork())
	}
}
