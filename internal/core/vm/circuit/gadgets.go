package circuit

import (
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// ============================================================================
//                          密码学 gadget
// ============================================================================

func fieldsOf(bits []Boolean) []Field {
	out := make([]Field, len(bits))
	for i, b := range bits {
		out[i] = b.Field
	}
	return out
}

func boolsOf(in []network.Field) []bool {
	out := make([]bool, len(in))
	for i, f := range in {
		out[i] = !f.IsZero()
	}
	return out
}

// HashBits 位串哈希
func (e *Environment) HashBits(bits []Boolean) Field {
	return e.gadget("hash_bits", uint64(len(bits)), fieldsOf(bits), 1, func(in []network.Field) ([]network.Field, error) {
		h, err := e.net.HashBits(boolsOf(in))
		return []network.Field{h}, err
	})[0]
}

// CommitBits 位串在随机数 r 下的承诺
func (e *Environment) CommitBits(bits []Boolean, r Scalar) Field {
	inputs := append(fieldsOf(bits), r.Field)
	return e.gadget("commit_bits", uint64(len(inputs)), inputs, 1, func(in []network.Field) ([]network.Field, error) {
		c, err := e.net.CommitBits(boolsOf(in[:len(in)-1]), network.Scalar(in[len(in)-1]))
		return []network.Field{c}, err
	})[0]
}

// HashFields 域元素哈希
func (e *Environment) HashFields(inputs []Field) Field {
	return e.gadget("hash_fields", uint64(len(inputs)), inputs, 1, func(in []network.Field) ([]network.Field, error) {
		h, err := e.net.HashFields(in)
		return []network.Field{h}, err
	})[0]
}

// HashToScalar 哈希到标量
func (e *Environment) HashToScalar(inputs []Field) Scalar {
	return Scalar{e.gadget("hash_to_scalar", uint64(len(inputs)), inputs, 1, func(in []network.Field) ([]network.Field, error) {
		s, err := e.net.HashToScalar(in)
		return []network.Field{s.ToField()}, err
	})[0]}
}

// GScalarMultiply 生成元标量乘
func (e *Environment) GScalarMultiply(s Scalar) Group {
	out := e.gadget("g_scalar_multiply", uint64(e.net.FieldBits()), []Field{s.Field}, 2, func(in []network.Field) ([]network.Field, error) {
		g := e.net.GScalarMultiply(network.Scalar(in[0]))
		return []network.Field{g.X, g.Y}, nil
	})
	return Group{X: out[0], Y: out[1]}
}

// ScalarMultiply 任意点标量乘
func (e *Environment) ScalarMultiply(p Group, s Scalar) Group {
	out := e.gadget("scalar_multiply", uint64(2*e.net.FieldBits()), []Field{p.X, p.Y, s.Field}, 2, func(in []network.Field) ([]network.Field, error) {
		g, err := e.net.ScalarMultiply(network.Group{X: in[0], Y: in[1]}, network.Scalar(in[2]))
		return []network.Field{g.X, g.Y}, err
	})
	return Group{X: out[0], Y: out[1]}
}

// AddPoints 点加
func (e *Environment) AddPoints(a, b Group) Group {
	out := e.gadget("add_points", 6, []Field{a.X, a.Y, b.X, b.Y}, 2, func(in []network.Field) ([]network.Field, error) {
		g, err := e.net.AddPoints(network.Group{X: in[0], Y: in[1]}, network.Group{X: in[2], Y: in[3]})
		return []network.Field{g.X, g.Y}, err
	})
	return Group{X: out[0], Y: out[1]}
}
