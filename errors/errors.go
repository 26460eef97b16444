package errors

import (
	"fmt"
	"strings"
)

// Phase indicates at which stage of a module's life the error occurred.
type Phase string

const (
	PhaseLink    Phase = "link"    // C5: cross-module import/export resolution
	PhaseRuntime Phase = "runtime" // C6/C7: instruction dispatch, traps
	PhaseHost    Phase = "host"    // a native/host function call
)

// Kind categorizes the error within its Phase.
type Kind string

const (
	// Link errors (ObjectNotFound / TypeMismatch / Unsupported variants).
	KindModuleNotFound                      Kind = "module_not_found"
	KindFunctionNotFound                     Kind = "function_not_found"
	KindNativeFunctionNotFound               Kind = "native_function_not_found"
	KindTableNotFound                        Kind = "table_not_found"
	KindMemoryBlockNotFound                  Kind = "memory_block_not_found"
	KindGlobalVariableNotFound               Kind = "global_variable_not_found"
	KindImportedFunctionTypeMismatch         Kind = "imported_function_type_mismatch"
	KindImportedTableTypeMismatch            Kind = "imported_table_type_mismatch"
	KindImportedMemoryBlockTypeMismatch      Kind = "imported_memory_block_type_mismatch"
	KindImportedGlobalVariableTypeMismatch   Kind = "imported_global_variable_type_mismatch"
	KindConstantExpressionValueTypeMismatch Kind = "constant_expression_value_type_mismatch"
	KindUnsupportedMultipleTable             Kind = "unsupported_multiple_table"
	KindUnsupportedMultipleMemoryBlock       Kind = "unsupported_multiple_memory_block"
	KindCyclicImport                         Kind = "cyclic_import"

	// Runtime validation/trap errors.
	KindFunctionResultTypeMismatch       Kind = "function_result_type_mismatch"
	KindBlockResultTypeMismatch          Kind = "block_result_type_mismatch"
	KindIndirectCallTypeMismatch         Kind = "indirect_call_type_mismatch"
	KindNotEnoughOperandForFunctionResult Kind = "not_enough_operand_for_function_result"
	KindNotEnoughOperandForBlockResult    Kind = "not_enough_operand_for_block_result"
	KindUnreachable                      Kind = "unreachable"
	KindOutOfBoundsMemory                Kind = "out_of_bounds_memory"
	KindOutOfBoundsTable                 Kind = "out_of_bounds_table"
	KindUndefinedElement                 Kind = "undefined_element"
	KindIntegerOverflow                  Kind = "integer_overflow"
	KindIntegerDivideByZero              Kind = "integer_divide_by_zero"
	KindInvalidConversionToInteger       Kind = "invalid_conversion_to_integer"
	KindIndirectCallNullElement          Kind = "indirect_call_null_element"
	KindUnsupportedOpcode                Kind = "unsupported_opcode"
	KindFunctionArgumentMismatch         Kind = "function_argument_mismatch"

	// Host errors.
	KindNativeError Kind = "native_error"
)

// Error is the structured error type used throughout the engine.
type Error struct {
	Cause       error
	Phase       Phase
	Kind        Kind
	Module      string
	Export      string
	Detail      string
	ResultIndex int
	Expected    string
	Actual      string
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(": module ")
		b.WriteString(strings.TrimSpace(e.Module))
		if e.Export != "" {
			b.WriteString(".")
			b.WriteString(e.Export)
		}
	} else if e.Export != "" {
		b.WriteString(": ")
		b.WriteString(e.Export)
	}

	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", e.Expected, e.Actual)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Phase and Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction, mirroring the teacher's
// Phase+Kind+Builder shape.
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Module(name string) *Builder   { b.err.Module = name; return b }
func (b *Builder) Export(name string) *Builder    { b.err.Export = name; return b }
func (b *Builder) Expected(s string) *Builder     { b.err.Expected = s; return b }
func (b *Builder) Actual(s string) *Builder       { b.err.Actual = s; return b }
func (b *Builder) ResultIndex(i int) *Builder     { b.err.ResultIndex = i; return b }
func (b *Builder) Cause(err error) *Builder       { b.err.Cause = err; return b }

func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *Builder) Build() *Error { return &b.err }

// Convenience constructors for the link-phase taxonomy.

func ModuleNotFound(name string) *Error {
	return New(PhaseLink, KindModuleNotFound).Module(name).Build()
}

func FunctionNotFound(module, export string) *Error {
	return New(PhaseLink, KindFunctionNotFound).Module(module).Export(export).Build()
}

func NativeFunctionNotFound(module, export string) *Error {
	return New(PhaseLink, KindNativeFunctionNotFound).Module(module).Export(export).Build()
}

func TableNotFound(module, export string) *Error {
	return New(PhaseLink, KindTableNotFound).Module(module).Export(export).Build()
}

func MemoryBlockNotFound(module, export string) *Error {
	return New(PhaseLink, KindMemoryBlockNotFound).Module(module).Export(export).Build()
}

func GlobalVariableNotFound(module, export string) *Error {
	return New(PhaseLink, KindGlobalVariableNotFound).Module(module).Export(export).Build()
}

func ImportedFunctionTypeMismatch(module, export string) *Error {
	return New(PhaseLink, KindImportedFunctionTypeMismatch).Module(module).Export(export).Build()
}

func ImportedTableTypeMismatch(module, export string) *Error {
	return New(PhaseLink, KindImportedTableTypeMismatch).Module(module).Export(export).Build()
}

func ImportedMemoryBlockTypeMismatch(module, export string) *Error {
	return New(PhaseLink, KindImportedMemoryBlockTypeMismatch).Module(module).Export(export).Build()
}

func ImportedGlobalVariableTypeMismatch(module, export string) *Error {
	return New(PhaseLink, KindImportedGlobalVariableTypeMismatch).Module(module).Export(export).Build()
}

func ConstantExpressionValueTypeMismatch(expected, actual string) *Error {
	return New(PhaseLink, KindConstantExpressionValueTypeMismatch).Expected(expected).Actual(actual).Build()
}

func UnsupportedMultipleTable() *Error {
	return New(PhaseLink, KindUnsupportedMultipleTable).Build()
}

func UnsupportedMultipleMemoryBlock() *Error {
	return New(PhaseLink, KindUnsupportedMultipleMemoryBlock).Build()
}

func CyclicImport(kind, module, export string) *Error {
	return New(PhaseLink, KindCyclicImport).Module(module).Export(export).Detail("cyclic %s import", kind).Build()
}

// Convenience constructors for the runtime taxonomy.

func FunctionResultTypeMismatch(resultIndex int, expected, actual string) *Error {
	return New(PhaseRuntime, KindFunctionResultTypeMismatch).ResultIndex(resultIndex).Expected(expected).Actual(actual).Build()
}

func BlockResultTypeMismatch(resultIndex int, expected, actual string) *Error {
	return New(PhaseRuntime, KindBlockResultTypeMismatch).ResultIndex(resultIndex).Expected(expected).Actual(actual).Build()
}

func IndirectCallTypeMismatch() *Error {
	return New(PhaseRuntime, KindIndirectCallTypeMismatch).Build()
}

func NotEnoughOperandForFunctionResult(resultsCount, operandsCount int) *Error {
	return New(PhaseRuntime, KindNotEnoughOperandForFunctionResult).
		Detail("need %d operand(s), have %d", resultsCount, operandsCount).Build()
}

func NotEnoughOperandForBlockResult(resultsCount, operandsCount int) *Error {
	return New(PhaseRuntime, KindNotEnoughOperandForBlockResult).
		Detail("need %d operand(s), have %d", resultsCount, operandsCount).Build()
}

func Unreachable() *Error {
	return New(PhaseRuntime, KindUnreachable).Build()
}

func OutOfBoundsMemory(addr uint32, size uint64) *Error {
	return New(PhaseRuntime, KindOutOfBoundsMemory).Detail("address %d, size %d", addr, size).Build()
}

func OutOfBoundsTable(index uint32) *Error {
	return New(PhaseRuntime, KindOutOfBoundsTable).Detail("index %d", index).Build()
}

func UndefinedElement(index uint32) *Error {
	return New(PhaseRuntime, KindUndefinedElement).Detail("index %d", index).Build()
}

func IntegerOverflow() *Error {
	return New(PhaseRuntime, KindIntegerOverflow).Build()
}

func IntegerDivideByZero() *Error {
	return New(PhaseRuntime, KindIntegerDivideByZero).Build()
}

func InvalidConversionToInteger() *Error {
	return New(PhaseRuntime, KindInvalidConversionToInteger).Build()
}

func IndirectCallNullElement(index uint32) *Error {
	return New(PhaseRuntime, KindIndirectCallNullElement).Detail("table index %d", index).Build()
}

func UnsupportedOpcode(mnemonic string) *Error {
	return New(PhaseRuntime, KindUnsupportedOpcode).Detail(mnemonic).Build()
}

// FunctionArgumentMismatch reports invoke's argument list failing to
// match the target export's declared parameter count or types, caught
// before a VM is ever constructed.
func FunctionArgumentMismatch(module, export, detail string) *Error {
	return New(PhaseRuntime, KindFunctionArgumentMismatch).Module(module).Export(export).Detail(detail).Build()
}

// NativeError wraps an error returned by a host function with call context.
func NativeError(module, export string, cause error) *Error {
	return New(PhaseHost, KindNativeError).Module(module).Export(export).Cause(cause).Build()
}
