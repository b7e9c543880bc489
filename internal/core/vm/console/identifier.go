package console

import (
	"fmt"
	"strings"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// maxIdentifierSize 标识符最大字节数（可打包进单个域元素）
const maxIdentifierSize = network.FieldSize - 1

// Identifier 程序内名称：记录类型、条目、闭包、函数
type Identifier string

// NewIdentifier 校验并构造标识符
//
// 规则：首字符为字母，其余为字母、数字或下划线，长度不超过31字节。
func NewIdentifier(s string) (Identifier, error) {
	if s == "" || len(s) > maxIdentifierSize {
		return "", fmt.Errorf("%w: identifier %q has invalid length", ErrInvalidIdentifier, s)
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '_'):
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
	}
	return Identifier(s), nil
}

// MustIdentifier 构造标识符，非法时 panic（用于内置程序与测试）
func MustIdentifier(s string) Identifier {
	id, err := NewIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ToField 标识符的域元素表示
func (i Identifier) ToField() network.Field {
	return network.Domain(string(i))
}

func (i Identifier) String() string { return string(i) }

// ProgramID 程序标识，形如 "credits.zk"
type ProgramID struct {
	Name    Identifier
	Network Identifier
}

// NewProgramID 解析 "name.network" 形式的程序标识
func NewProgramID(s string) (ProgramID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return ProgramID{}, fmt.Errorf("%w: program id %q", ErrInvalidIdentifier, s)
	}
	name, err := NewIdentifier(parts[0])
	if err != nil {
		return ProgramID{}, err
	}
	nw, err := NewIdentifier(parts[1])
	if err != nil {
		return ProgramID{}, err
	}
	if len(s) > maxIdentifierSize {
		return ProgramID{}, fmt.Errorf("%w: program id %q too long", ErrInvalidIdentifier, s)
	}
	return ProgramID{Name: name, Network: nw}, nil
}

// MustProgramID 解析程序标识，非法时 panic
func MustProgramID(s string) ProgramID {
	id, err := NewProgramID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (p ProgramID) String() string {
	return string(p.Name) + "." + string(p.Network)
}

// ToField 程序标识的域元素表示
func (p ProgramID) ToField() network.Field {
	return network.Domain(p.String())
}

// Locator 外部记录定位符：program_id/resource
type Locator struct {
	Program  ProgramID
	Resource Identifier
}

func (l Locator) String() string {
	return l.Program.String() + "/" + string(l.Resource)
}
