package network

import (
	"hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
)

// BLS12381 基于 BLS12-381 标量域与 Jubjub 嵌入曲线的网络
var BLS12381 = register(newBLS12381())

func newBLS12381() Network {
	params := twistededwards.GetEdwardsCurve()
	return &parameters{ops: curveOps{
		id:         2,
		name:       "bls12-381",
		curve:      ecc.BLS12_381,
		modulus:    fr.Modulus(),
		order:      new(big.Int).Set(&params.Order),
		generator:  Group{X: params.Base.X.Bytes(), Y: params.Base.Y.Bytes()},
		maxInputs:  16,
		maxOutputs: 16,
		newHash:    func() hash.Hash { return mimc.NewMiMC() },
		isOnCurve: func(p Group) bool {
			pt, ok := bls12381Point(p)
			return ok && pt.IsOnCurve()
		},
		scalarMul: func(p Group, s *big.Int) (Group, error) {
			pt, ok := bls12381Point(p)
			if !ok || !pt.IsOnCurve() {
				return Group{}, ErrPointNotOnCurve
			}
			var res twistededwards.PointAffine
			res.ScalarMultiplication(&pt, s)
			return Group{X: res.X.Bytes(), Y: res.Y.Bytes()}, nil
		},
		addPoints: func(a, b Group) (Group, error) {
			pa, okA := bls12381Point(a)
			pb, okB := bls12381Point(b)
			if !okA || !okB || !pa.IsOnCurve() || !pb.IsOnCurve() {
				return Group{}, ErrPointNotOnCurve
			}
			var res twistededwards.PointAffine
			res.Add(&pa, &pb)
			return Group{X: res.X.Bytes(), Y: res.Y.Bytes()}, nil
		},
	}}
}

func bls12381Point(p Group) (twistededwards.PointAffine, bool) {
	var pt twistededwards.PointAffine
	if err := pt.X.SetBytesCanonical(p.X[:]); err != nil {
		return pt, false
	}
	if err := pt.Y.SetBytesCanonical(p.Y[:]); err != nil {
		return pt, false
	}
	return pt, true
}
