package console

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// ============================================================================
//                          规范字节编码工具
// ============================================================================

// Writer 规范字节编码写入器（小端整数，大端域元素）
type Writer struct {
	buf bytes.Buffer
}

// NewWriter 创建写入器
func NewWriter() *Writer { return &Writer{} }

func (w *Writer) U8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) Field(f network.Field) { w.buf.Write(f[:]) }

func (w *Writer) Group(g network.Group) {
	w.buf.Write(g.X[:])
	w.buf.Write(g.Y[:])
}

func (w *Writer) Bool(b bool) {
	if b {
		w.U8(1)
		return
	}
	w.U8(0)
}

// Name 单字节长度前缀的短字符串
func (w *Writer) Name(s string) {
	w.U8(uint8(len(s)))
	w.buf.WriteString(s)
}

// Blob 四字节长度前缀的字节串
func (w *Writer) Blob(b []byte) {
	w.U32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *Writer) Raw(b []byte) { w.buf.Write(b) }

// Bytes 返回已写入的字节
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader 规范字节解码读取器，首个错误后所有读取返回零值
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader 创建读取器
func NewReader(b []byte) *Reader { return &Reader{r: bytes.NewReader(b)} }

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = WrapSerializationError("unexpected end of input", err)
	}
	return b
}

func (r *Reader) U8() uint8   { return r.read(1)[0] }
func (r *Reader) U16() uint16 { return binary.LittleEndian.Uint16(r.read(2)) }
func (r *Reader) U32() uint32 { return binary.LittleEndian.Uint32(r.read(4)) }

func (r *Reader) Field() network.Field {
	var f network.Field
	copy(f[:], r.read(network.FieldSize))
	return f
}

func (r *Reader) Group() network.Group {
	x := r.Field()
	y := r.Field()
	return network.Group{X: x, Y: y}
}

func (r *Reader) Bool() bool {
	switch v := r.U8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.Fail(fmt.Sprintf("invalid boolean byte %d", v))
		return false
	}
}

func (r *Reader) Name() string {
	n := r.U8()
	return string(r.read(int(n)))
}

// Blob 读取四字节长度前缀的字节串
func (r *Reader) Blob() []byte {
	n := r.U32()
	if r.err == nil && int(n) > r.r.Len() {
		r.Fail("blob length exceeds input")
		return nil
	}
	return r.read(int(n))
}

// Fail 记录解码错误（仅保留第一个）
func (r *Reader) Fail(what string) {
	if r.err == nil {
		r.err = WrapSerializationError(what, nil)
	}
}

// Err 返回首个解码错误
func (r *Reader) Err() error { return r.err }

// Finish 要求输入已完全消费
func (r *Reader) Finish() error {
	if r.err == nil && r.r.Len() != 0 {
		r.err = WrapSerializationError(fmt.Sprintf("%d trailing bytes", r.r.Len()), nil)
	}
	return r.err
}

// ============================================================================
//                              位编码工具
// ============================================================================

// AppendTag 追加8位小端标签
func AppendTag(bits []bool, tag uint8) []bool {
	for i := 0; i < 8; i++ {
		bits = append(bits, tag>>uint(i)&1 == 1)
	}
	return bits
}

// AppendField 追加域元素的低 n 位（小端）
func AppendField(bits []bool, f network.Field, n int) []bool {
	return append(bits, f.Bits(n)...)
}
