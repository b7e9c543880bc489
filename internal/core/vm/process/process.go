// Package process 实现执行引擎
//
// Process 持有已加载程序的求值器，提供两条路径：
//   - Evaluate: 明文求值，产出 Response
//   - Execute: 在新的电路环境中执行，约束请求、函数体与每个输出的公开标识
//
// 两条路径对同一请求产出相同的输出值；记录输出的随机数下标为 num_inputs + position。
package process

import (
	"fmt"
	"sync"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/program"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

// Process 执行引擎
//
// 并发安全：程序表受读写锁保护，每次 Execute 使用独立的电路环境。
type Process struct {
	net        network.Network
	logger     log.Logger
	logCircuit bool
	recorder   Recorder

	mu     sync.RWMutex
	stacks map[string]vmiface.Stack
}

// Option 执行引擎选项
type Option func(*Process)

// WithLogger 设置日志记录器
func WithLogger(logger log.Logger) Option {
	return func(p *Process) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCircuitLogging 开启电路诊断日志
func WithCircuitLogging(enabled bool) Option {
	return func(p *Process) { p.logCircuit = enabled }
}

// WithRecorder 设置调用统计收集器
func WithRecorder(r Recorder) Option {
	return func(p *Process) { p.recorder = r }
}

// New 创建执行引擎并加载内置 credits 程序
func New(net network.Network, opts ...Option) *Process {
	p := &Process{
		net:    net,
		logger: logimpl.NewModuleLogger(nil, "process"),
		stacks: make(map[string]vmiface.Stack),
	}
	for _, opt := range opts {
		opt(p)
	}
	credits := program.Credits()
	p.stacks[credits.ID().String()] = program.NewStack(net, credits)
	return p
}

// Network 网络参数
func (p *Process) Network() network.Network { return p.net }

// AddProgram 加载程序；同名程序不可覆盖
func (p *Process) AddProgram(prog *program.Program) error {
	return p.AddStack(program.NewStack(p.net, prog))
}

// AddStack 加载自定义求值器
func (p *Process) AddStack(stack vmiface.Stack) error {
	id := stack.Program().ID().String()
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.stacks[id]; exists {
		return fmt.Errorf("%w: program %s", program.ErrDuplicateDefinition, id)
	}
	p.stacks[id] = stack
	p.logger.Debugf("program loaded: %s", id)
	return nil
}

// GetStack 查找程序的求值器
func (p *Process) GetStack(id console.ProgramID) (vmiface.Stack, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	stack, ok := p.stacks[id.String()]
	if !ok {
		return nil, WrapProgramError(id.String())
	}
	return stack, nil
}

// ContainsProgram 程序是否已加载
func (p *Process) ContainsProgram(id console.ProgramID) bool {
	_, err := p.GetStack(id)
	return err == nil
}

// resolve 定位函数并校验输入个数
func (p *Process) resolve(req *console.Request) (vmiface.Stack, *program.Function, error) {
	stack, err := p.GetStack(req.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	fn, err := stack.Program().GetFunction(req.FunctionName)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Inputs) != len(fn.Inputs) || len(req.InputIDs) != len(fn.Inputs) {
		return nil, nil, WrapArityError(locator(req), len(fn.Inputs), len(req.Inputs))
	}
	return stack, fn, nil
}

func locator(req *console.Request) string {
	return console.Locator{Program: req.ProgramID, Resource: req.FunctionName}.String()
}

// ============================================================================
//                              明文求值
// ============================================================================

// Evaluate 校验请求并明文求值函数
func (p *Process) Evaluate(req *console.Request) (*console.Response, error) {
	stack, fn, err := p.resolve(req)
	if err != nil {
		return nil, err
	}
	return p.evaluate(stack, fn, req)
}

func (p *Process) evaluate(stack vmiface.Stack, fn *program.Function, req *console.Request) (*console.Response, error) {
	if err := req.Verify(p.net, fn.InputTypes()); err != nil {
		return nil, err
	}
	outputs, err := stack.EvaluateFunction(fn, req.Inputs)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", locator(req), err)
	}
	return console.NewResponse(p.net, req.ProgramID, len(req.Inputs), req.TVK, outputs, fn.OutputTypes())
}

// ============================================================================
//                              电路执行
// ============================================================================

// Call 一次电路执行的全部产物
type Call struct {
	Request    *console.Request
	Response   *console.Response
	Outputs    []circuit.Value
	Trace      *Trace
	Transition *transition.Transition
	Assignment *circuit.Assignment
	Metrics    CallMetrics
}

// IsSatisfied 电路约束是否全部成立
func (c *Call) IsSatisfied() bool { return c.Assignment.IsSatisfied() }

// Execute 在电路中执行请求，返回电路输出
func (p *Process) Execute(req *console.Request) ([]circuit.Value, error) {
	call, err := p.ExecuteCall(req)
	if err != nil {
		return nil, err
	}
	return call.Outputs, nil
}

// ExecuteCall 在电路中执行请求并保留响应、轨迹、转换与赋值
//
// 外部期望值取自明文求值的 Response：常量输出以 Constant 模式注入，其余以 Public 注入。
// 任一期望值不一致时电路不可满足，由证明后端报告。
func (p *Process) ExecuteCall(req *console.Request) (*Call, error) {
	stack, fn, err := p.resolve(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.evaluate(stack, fn, req)
	if err != nil {
		return nil, err
	}

	inputTypes := fn.InputTypes()
	outputTypes := fn.OutputTypes()
	env := circuit.NewEnvironment(p.net)

	// 请求
	tvk := env.NewField(circuit.Public, req.TVK)
	creq, err := env.InjectRequest(req, inputTypes)
	if err != nil {
		return nil, err
	}
	env.AssertEqLabeled("request tvk", tvk, creq.TVK)
	verified, err := creq.Verify(env, inputTypes)
	if err != nil {
		return nil, err
	}
	env.Assert(verified)
	countRequest := env.Count()

	// 函数体
	outputs, err := stack.ExecuteFunction(env, fn, creq.Inputs)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", locator(req), err)
	}
	if len(outputs) != len(outputTypes) {
		return nil, console.WrapTypeError("output count", len(outputTypes), len(outputs))
	}
	countFunction := env.Count()

	// 响应
	trace := NewTrace(p.net, req)
	for i, output := range outputs {
		leaf, out, err := p.constrainOutput(env, req, creq, i, output, outputTypes[i], resp.OutputIDs[i])
		if err != nil {
			return nil, err
		}
		outputs[i] = out
		trace.AddOutput(leaf)
	}
	if err := trace.Finalize(); err != nil {
		return nil, err
	}
	countResponse := env.Count()

	metrics := CallMetrics{
		ProgramID:        req.ProgramID,
		FunctionName:     req.FunctionName,
		NumInstructions:  stack.InstructionCount(fn),
		NumRequest:       countRequest,
		NumFunction:      countFunction.Sub(countRequest),
		NumResponse:      countResponse.Sub(countFunction),
		TotalConstraints: countResponse.Constraints,
	}
	satisfied := env.IsSatisfied()
	if p.logCircuit {
		p.logger.Debugf("circuit %s satisfied=%t %s", locator(req), satisfied, metrics)
		if !satisfied {
			p.logger.Debugf("circuit %s unsatisfied=%v err=%v", locator(req), env.Unsatisfied(), env.Err())
		}
	}
	if p.recorder != nil {
		p.recorder.ObserveCall(metrics, satisfied)
	}

	tr, err := transition.FromExecution(p.net, req, resp)
	if err != nil {
		return nil, err
	}
	return &Call{
		Request:    req,
		Response:   resp,
		Outputs:    outputs,
		Trace:      trace,
		Transition: tr,
		Assignment: env.Assignment(),
		Metrics:    metrics,
	}, nil
}

// constrainOutput 约束第 i 个输出的公开标识，返回轨迹叶子与（赋予随机数后的）输出
func (p *Process) constrainOutput(
	env *circuit.Environment,
	req *console.Request,
	creq *circuit.Request,
	i int,
	output circuit.Value,
	outputType console.ValueType,
	expected console.OutputID,
) (network.Field, circuit.Value, error) {
	label := fmt.Sprintf("output %d", i)
	randomizer := func() circuit.Scalar {
		index := env.Constant(network.FieldFromUint64(uint64(len(req.Inputs) + i)))
		return env.HashToScalar([]circuit.Field{creq.TVK, index})
	}

	switch outputType.Kind {
	case console.ValueConstant, console.ValuePublic:
		plaintext, ok := output.(circuit.Plaintext)
		if !ok {
			return network.Field{}, nil, console.WrapTypeError(label, "plaintext", "record")
		}
		mode := circuit.Public
		if outputType.Kind == console.ValueConstant {
			mode = circuit.Constant
		}
		hash := env.HashBits(plaintext.Bits(env))
		env.AssertEqLabeled(label+" hash", hash, env.NewField(mode, expected.ID))
		return hash.Value(), output, nil

	case console.ValuePrivate:
		plaintext, ok := output.(circuit.Plaintext)
		if !ok {
			return network.Field{}, nil, console.WrapTypeError(label, "plaintext", "record")
		}
		commitment := env.CommitBits(plaintext.Bits(env), randomizer())
		env.AssertEqLabeled(label+" commitment", commitment, env.NewField(circuit.Public, expected.ID))
		return commitment.Value(), output, nil

	case console.ValueRecord:
		record, ok := output.(*circuit.Record)
		if !ok {
			return network.Field{}, nil, console.WrapTypeError(label, "record", "plaintext")
		}
		r := randomizer()
		record = record.WithNonce(env.GScalarMultiply(r))
		commitment := record.Commitment(env, req.ProgramID, outputType.Record)
		env.AssertEqLabeled(label+" commitment", commitment, env.NewField(circuit.Public, expected.ID))
		env.AssertEqGroup(label+" nonce", record.Nonce, env.NewGroup(circuit.Public, expected.Nonce))
		checksum := record.Encrypt(env, r).Checksum(env)
		env.AssertEqLabeled(label+" checksum", checksum, env.NewField(circuit.Public, expected.Checksum))
		return commitment.Value(), record, nil

	case console.ValueExternalRecord:
		record, ok := output.(*circuit.Record)
		if !ok {
			return network.Field{}, nil, console.WrapTypeError(label, "record", "plaintext")
		}
		hash := env.HashBits(record.Bits(env))
		env.AssertEqLabeled(label+" hash", hash, env.NewField(circuit.Public, expected.ID))
		return hash.Value(), output, nil

	default:
		return network.Field{}, nil, console.WrapTypeError(label+" kind", "0..4", outputType.Kind)
	}
}
