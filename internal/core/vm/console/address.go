package console

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// 载荷：网络编号(2) || 点编码(64) || 校验和(4)
const (
	addressChecksumLen = 4
	addressPayloadLen  = 2 + 2*network.FieldSize
)

// EncodeAddress 地址的 Base58Check 文本形式，网络编号作为版本前缀
func EncodeAddress(net network.Network, addr network.Group) string {
	payload := make([]byte, 2, addressPayloadLen+addressChecksumLen)
	binary.BigEndian.PutUint16(payload, net.ID())
	payload = append(payload, addr.Bytes()...)
	return base58.Encode(append(payload, addressChecksum(payload)...))
}

// DecodeAddress 解析 EncodeAddress 的输出
//
// 拒绝其他网络的地址与不在曲线上的点。
func DecodeAddress(net network.Network, s string) (network.Group, error) {
	raw := base58.Decode(s)
	if len(raw) != addressPayloadLen+addressChecksumLen {
		return network.Group{}, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(raw))
	}
	payload, checksum := raw[:addressPayloadLen], raw[addressPayloadLen:]
	if !bytes.Equal(checksum, addressChecksum(payload)) {
		return network.Group{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	if id := binary.BigEndian.Uint16(payload); id != net.ID() {
		return network.Group{}, fmt.Errorf("%w: network %d, expected %d", ErrInvalidAddress, id, net.ID())
	}
	addr, ok := network.GroupFromBytes(payload[2:])
	if !ok || !net.IsOnCurve(addr) {
		return network.Group{}, fmt.Errorf("%w: %v", ErrInvalidAddress, network.ErrPointNotOnCurve)
	}
	return addr, nil
}

// 双 SHA256 的前 4 字节
func addressChecksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:addressChecksumLen]
}
