package codec

import (
	"bytes"
	"fmt"

	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              类型化变更生产者
// ============================================================================
//
// 每个生产者的链标识与操作由类型本身决定，只携带新旧两侧快照。
// nil 一侧编码为对应长度的全零缺失快照。

// snapshotPair 新旧快照
type snapshotPair struct {
	oldValue []byte
	newValue []byte
}

// OldValue/NewValue 返回副本，调用方修改不会影响记录
func (p snapshotPair) OldValue() []byte { return bytes.Clone(p.oldValue) }
func (p snapshotPair) NewValue() []byte { return bytes.Clone(p.newValue) }

// AddReferenceBlockChange 参考链 ADD_BLOCK
type AddReferenceBlockChange struct{ snapshotPair }

func (AddReferenceBlockChange) ChainIdentifier() types.ChainMagic { return types.ReferenceMagic }
func (AddReferenceBlockChange) Operation() types.Operation        { return types.OpAddBlock }

// SetReferenceHeadChange 参考链 SET_HEAD
type SetReferenceHeadChange struct{ snapshotPair }

func (SetReferenceHeadChange) ChainIdentifier() types.ChainMagic { return types.ReferenceMagic }
func (SetReferenceHeadChange) Operation() types.Operation        { return types.OpSetHead }

// AddPrimaryBlockChange 主链 ADD_BLOCK
type AddPrimaryBlockChange struct{ snapshotPair }

func (AddPrimaryBlockChange) ChainIdentifier() types.ChainMagic { return types.PrimaryMagic }
func (AddPrimaryBlockChange) Operation() types.Operation        { return types.OpAddBlock }

// SetPrimaryHeadChange 主链 SET_HEAD
type SetPrimaryHeadChange struct{ snapshotPair }

func (SetPrimaryHeadChange) ChainIdentifier() types.ChainMagic { return types.PrimaryMagic }
func (SetPrimaryHeadChange) Operation() types.Operation        { return types.OpSetHead }

// SetProofChange 主链嵌入证明指针切换；快照为参考链区块头
type SetProofChange struct{ snapshotPair }

func (SetProofChange) ChainIdentifier() types.ChainMagic { return types.PrimaryMagic }
func (SetProofChange) Operation() types.Operation        { return types.OpSetProof }

var (
	_ types.ChangeRecord = AddReferenceBlockChange{}
	_ types.ChangeRecord = SetReferenceHeadChange{}
	_ types.ChangeRecord = AddPrimaryBlockChange{}
	_ types.ChangeRecord = SetPrimaryHeadChange{}
	_ types.ChangeRecord = SetProofChange{}
)

func referencePair(oldHeader, newHeader *types.ReferenceHeader) (snapshotPair, error) {
	oldValue, err := EncodeReference(oldHeader)
	if err != nil {
		return snapshotPair{}, fmt.Errorf("encode old snapshot: %w", err)
	}
	newValue, err := EncodeReference(newHeader)
	if err != nil {
		return snapshotPair{}, fmt.Errorf("encode new snapshot: %w", err)
	}
	return snapshotPair{oldValue: oldValue, newValue: newValue}, nil
}

func primaryPair(oldHeader, newHeader *types.PrimaryHeader) (snapshotPair, error) {
	oldValue, err := EncodePrimary(oldHeader)
	if err != nil {
		return snapshotPair{}, fmt.Errorf("encode old snapshot: %w", err)
	}
	newValue, err := EncodePrimary(newHeader)
	if err != nil {
		return snapshotPair{}, fmt.Errorf("encode new snapshot: %w", err)
	}
	return snapshotPair{oldValue: oldValue, newValue: newValue}, nil
}

// NewAddReferenceBlockChange 参考链区块进入/离开活跃链
func NewAddReferenceBlockChange(oldHeader, newHeader *types.ReferenceHeader) (types.ChangeRecord, error) {
	p, err := referencePair(oldHeader, newHeader)
	if err != nil {
		return nil, err
	}
	return AddReferenceBlockChange{p}, nil
}

// NewSetReferenceHeadChange 参考链链头切换
func NewSetReferenceHeadChange(oldHeader, newHeader *types.ReferenceHeader) (types.ChangeRecord, error) {
	p, err := referencePair(oldHeader, newHeader)
	if err != nil {
		return nil, err
	}
	return SetReferenceHeadChange{p}, nil
}

// NewAddPrimaryBlockChange 主链区块进入/离开活跃链
func NewAddPrimaryBlockChange(oldHeader, newHeader *types.PrimaryHeader) (types.ChangeRecord, error) {
	p, err := primaryPair(oldHeader, newHeader)
	if err != nil {
		return nil, err
	}
	return AddPrimaryBlockChange{p}, nil
}

// NewSetPrimaryHeadChange 主链链头切换
func NewSetPrimaryHeadChange(oldHeader, newHeader *types.PrimaryHeader) (types.ChangeRecord, error) {
	p, err := primaryPair(oldHeader, newHeader)
	if err != nil {
		return nil, err
	}
	return SetPrimaryHeadChange{p}, nil
}

// NewSetProofChange 主链证明指针从 oldProof 切换到 newProof
func NewSetProofChange(oldProof, newProof *types.ReferenceHeader) (types.ChangeRecord, error) {
	p, err := referencePair(oldProof, newProof)
	if err != nil {
		return nil, err
	}
	return SetProofChange{p}, nil
}

// NewAddBlockChange 按链分派的 ADD_BLOCK 生产者
func NewAddBlockChange(magic types.ChainMagic, oldHeader, newHeader types.StoredHeader) (types.ChangeRecord, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		o, n, err := referenceSides(oldHeader, newHeader)
		if err != nil {
			return nil, err
		}
		return NewAddReferenceBlockChange(o, n)
	case types.ChainKindPrimary:
		o, n, err := primarySides(oldHeader, newHeader)
		if err != nil {
			return nil, err
		}
		return NewAddPrimaryBlockChange(o, n)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
}

// NewSetHeadChange 按链分派的 SET_HEAD 生产者
func NewSetHeadChange(magic types.ChainMagic, oldHeader, newHeader types.StoredHeader) (types.ChangeRecord, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		o, n, err := referenceSides(oldHeader, newHeader)
		if err != nil {
			return nil, err
		}
		return NewSetReferenceHeadChange(o, n)
	case types.ChainKindPrimary:
		o, n, err := primarySides(oldHeader, newHeader)
		if err != nil {
			return nil, err
		}
		return NewSetPrimaryHeadChange(o, n)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
}

func referenceSides(a, b types.StoredHeader) (*types.ReferenceHeader, *types.ReferenceHeader, error) {
	o, ok1 := asReference(a)
	n, ok2 := asReference(b)
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("%w: expected reference headers", types.ErrMalformedHeader)
	}
	return o, n, nil
}

func primarySides(a, b types.StoredHeader) (*types.PrimaryHeader, *types.PrimaryHeader, error) {
	o, ok1 := asPrimary(a)
	n, ok2 := asPrimary(b)
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("%w: expected primary headers", types.ErrMalformedHeader)
	}
	return o, n, nil
}

func asReference(h types.StoredHeader) (*types.ReferenceHeader, bool) {
	if types.IsNilHeader(h) {
		return nil, true
	}
	r, ok := h.(*types.ReferenceHeader)
	return r, ok
}

func asPrimary(h types.StoredHeader) (*types.PrimaryHeader, bool) {
	if types.IsNilHeader(h) {
		return nil, true
	}
	p, ok := h.(*types.PrimaryHeader)
	return p, ok
}
