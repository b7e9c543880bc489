package network

import (
	"hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

// BN254 基于 BN254 标量域与 Baby-Jubjub 嵌入曲线的网络
var BN254 = register(newBN254())

func newBN254() Network {
	params := twistededwards.GetEdwardsCurve()
	return &parameters{ops: curveOps{
		id:         1,
		name:       "bn254",
		curve:      ecc.BN254,
		modulus:    fr.Modulus(),
		order:      new(big.Int).Set(&params.Order),
		generator:  Group{X: params.Base.X.Bytes(), Y: params.Base.Y.Bytes()},
		maxInputs:  16,
		maxOutputs: 16,
		newHash:    func() hash.Hash { return mimc.NewMiMC() },
		isOnCurve: func(p Group) bool {
			pt, ok := bn254Point(p)
			return ok && pt.IsOnCurve()
		},
		scalarMul: func(p Group, s *big.Int) (Group, error) {
			pt, ok := bn254Point(p)
			if !ok || !pt.IsOnCurve() {
				return Group{}, ErrPointNotOnCurve
			}
			var res twistededwards.PointAffine
			res.ScalarMultiplication(&pt, s)
			return Group{X: res.X.Bytes(), Y: res.Y.Bytes()}, nil
		},
		addPoints: func(a, b Group) (Group, error) {
			pa, okA := bn254Point(a)
			pb, okB := bn254Point(b)
			if !okA || !okB || !pa.IsOnCurve() || !pb.IsOnCurve() {
				return Group{}, ErrPointNotOnCurve
			}
			var res twistededwards.PointAffine
			res.Add(&pa, &pb)
			return Group{X: res.X.Bytes(), Y: res.Y.Bytes()}, nil
		},
	}}
}

func bn254Point(p Group) (twistededwards.PointAffine, bool) {
	var pt twistededwards.PointAffine
	if err := pt.X.SetBytesCanonical(p.X[:]); err != nil {
		return pt, false
	}
	if err := pt.Y.SetBytesCanonical(p.Y[:]); err != nil {
		return pt, false
	}
	return pt, true
}
