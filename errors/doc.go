// Package errors provides the structured error taxonomy shared by the
// linker and interpreter.
//
// Errors are categorized by Phase (when in a module's life the failure
// happened: link time, instruction dispatch, or a host call) and Kind
// (the specific failure within that phase). Use the convenience
// constructors (ModuleNotFound, IntegerDivideByZero, ...) for the fixed
// set of known failures, or Builder for anything that
// needs extra context:
//
//	err := errors.New(errors.PhaseLink, errors.KindImportedFunctionTypeMismatch).
//		Module("b").Export("add").Build()
//
// All errors implement the standard error interface and support
// errors.Is/As against a Phase+Kind pair.
package errors
