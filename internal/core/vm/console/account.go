package console

import (
	"fmt"
	"io"
	"math/big"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// PrivateKey 账户私钥
//
// 同一个标量同时用作签名密钥与记录视图密钥，地址为 G*sk。
type PrivateKey struct {
	sk network.Scalar
}

// NewPrivateKey 采样新私钥
func NewPrivateKey(net network.Network, rng io.Reader) (PrivateKey, error) {
	sk, err := net.RandomScalar(rng)
	if err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{sk: sk}, nil
}

// PrivateKeyFromSeed 由种子确定性派生私钥
func PrivateKeyFromSeed(net network.Network, seed network.Field) (PrivateKey, error) {
	sk, err := net.HashToScalar([]network.Field{network.Domain("zkvm.PrivateKey"), seed})
	if err != nil {
		return PrivateKey{}, err
	}
	if sk.IsZero() {
		return PrivateKey{}, fmt.Errorf("degenerate seed")
	}
	return PrivateKey{sk: sk}, nil
}

// ViewKey 记录视图密钥
func (k PrivateKey) ViewKey() network.Scalar { return k.sk }

// Address 账户地址
func (k PrivateKey) Address(net network.Network) network.Group {
	return net.GScalarMultiply(k.sk)
}

// Signature Schnorr 签名 (e, s)，R = G*s + pk*e
type Signature struct {
	Challenge network.Scalar
	Response  network.Scalar
}

// Sign 对域元素消息签名
func (k PrivateKey) Sign(net network.Network, message []network.Field, rng io.Reader) (Signature, error) {
	nonce, err := net.RandomScalar(rng)
	if err != nil {
		return Signature{}, err
	}
	commitment := net.GScalarMultiply(nonce)
	challenge, err := net.HashToScalar(ChallengePreimage(commitment, k.Address(net), message))
	if err != nil {
		return Signature{}, err
	}
	// s = k - e*sk
	eSk := net.ScalarMul(challenge, k.sk)
	negESk := net.NewScalar(new(big.Int).Neg(eSk.BigInt()))
	return Signature{Challenge: challenge, Response: net.ScalarAdd(nonce, negESk)}, nil
}

// Verify 校验签名
func (s Signature) Verify(net network.Network, address network.Group, message []network.Field) bool {
	gs := net.GScalarMultiply(s.Response)
	pe, err := net.ScalarMultiply(address, s.Challenge)
	if err != nil {
		return false
	}
	commitment, err := net.AddPoints(gs, pe)
	if err != nil {
		return false
	}
	challenge, err := net.HashToScalar(ChallengePreimage(commitment, address, message))
	if err != nil {
		return false
	}
	return challenge == s.Challenge
}

// ChallengePreimage 签名挑战的哈希原像：R、公钥、消息
func ChallengePreimage(commitment, address network.Group, message []network.Field) []network.Field {
	preimage := make([]network.Field, 0, 4+len(message))
	preimage = append(preimage, commitment.X, commitment.Y, address.X, address.Y)
	return append(preimage, message...)
}
