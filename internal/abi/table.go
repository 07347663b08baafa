// Package abi declares the runtime ABI table: a static, centrally
// defined mapping from runtime symbol name to (parameter types,
// return type). It is the single source of truth consumed by both
// the Lowerer (internal/lower, deciding whether it may emit a call)
// and the Code Generator (internal/codegen, declaring externals).
//
// The catalog is grounded directly in the original zaco-compiler's
// runtime function declarations (original_source crates/zaco-codegen
// /src/runtime.rs and the call sites in crates/zaco-ir/src/lower.rs).
// Most symbols below match what that implementation actually declares
// or calls; zaco_obj_keys, zaco_array_set, and zaco_object_get_ptr have
// no direct original counterpart and were added here to give the
// Lowerer symmetric, Ptr-returning primitives it needs for object
// property capture, for-in enumeration, and index assignment (see
// DESIGN.md). Closures have no runtime representation at all: a
// closure's function identity is tracked entirely at lower time, and
// the call site passes the environment pointer as an ordinary
// argument (see internal/lower/closures.go).
package abi

import "github.com/zacostudio/zacoc/internal/ir"

// Signature is a runtime symbol's calling convention: positional
// parameter types and a return type (ir.Void() for no return value).
type Signature struct {
	Params []ir.Type
	Ret    ir.Type
}

func sig(ret ir.Type, params ...ir.Type) Signature {
	return Signature{Params: params, Ret: ret}
}

// table is keyed by symbol name for O(1) lookup (spec §4.1). It is
// built once at package init and never mutated afterward.
var table = map[string]Signature{
	// Memory / reference counting
	"zaco_alloc":         sig(ir.Ptr(), ir.I64()),
	"zaco_free":          sig(ir.Void(), ir.Ptr()),
	"zaco_rc_inc":        sig(ir.Void(), ir.Ptr()),
	"zaco_rc_dec":        sig(ir.Void(), ir.Ptr()),
	"zaco_array_rc_dec":  sig(ir.Void(), ir.Ptr()),

	// Strings
	"zaco_str_concat":     sig(ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_str_new":        sig(ir.Ptr(), ir.Ptr()),
	"zaco_str_eq":         sig(ir.Bool(), ir.Ptr(), ir.Ptr()),
	"zaco_f64_to_str":     sig(ir.Str(), ir.F64()),
	"zaco_str_slice":      sig(ir.Str(), ir.Ptr(), ir.I64(), ir.I64()),
	"zaco_str_to_upper":   sig(ir.Str(), ir.Ptr()),
	"zaco_str_to_lower":   sig(ir.Str(), ir.Ptr()),
	"zaco_str_trim":       sig(ir.Str(), ir.Ptr()),
	"zaco_str_index_of":   sig(ir.I64(), ir.Ptr(), ir.Ptr()),
	"zaco_str_includes":   sig(ir.Bool(), ir.Ptr(), ir.Ptr()),
	"zaco_str_replace":    sig(ir.Str(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_str_split":      sig(ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_str_starts_with": sig(ir.Bool(), ir.Ptr(), ir.Ptr()),
	"zaco_str_ends_with":  sig(ir.Bool(), ir.Ptr(), ir.Ptr()),
	"zaco_str_char_at":    sig(ir.Str(), ir.Ptr(), ir.I64()),
	"zaco_str_repeat":     sig(ir.Str(), ir.Ptr(), ir.I64()),
	"zaco_str_pad_start":  sig(ir.Str(), ir.Ptr(), ir.I64(), ir.Ptr()),
	"zaco_str_pad_end":    sig(ir.Str(), ir.Ptr(), ir.I64(), ir.Ptr()),

	// Arrays
	"zaco_array_new":       sig(ir.Ptr(), ir.I64()),
	"zaco_array_len":       sig(ir.I64(), ir.Ptr()),
	"zaco_array_length":    sig(ir.I64(), ir.Ptr()),
	"zaco_array_get":       sig(ir.F64(), ir.Ptr(), ir.I64()),
	"zaco_array_get_f64":   sig(ir.F64(), ir.Ptr(), ir.I64()),
	"zaco_array_get_ptr":   sig(ir.Ptr(), ir.Ptr(), ir.I64()),
	"zaco_array_set":       sig(ir.Void(), ir.Ptr(), ir.I64(), ir.F64()),
	"zaco_array_push":      sig(ir.Void(), ir.Ptr(), ir.Ptr()),
	"zaco_array_pop":       sig(ir.Ptr(), ir.Ptr()),
	"zaco_array_slice":     sig(ir.Ptr(), ir.Ptr(), ir.I64(), ir.I64()),
	"zaco_array_concat":    sig(ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_array_index_of":  sig(ir.I64(), ir.Ptr(), ir.Ptr()),
	"zaco_array_join":      sig(ir.Str(), ir.Ptr(), ir.Ptr()),
	"zaco_array_reverse":   sig(ir.Ptr(), ir.Ptr()),

	// Objects
	"zaco_object_new":      sig(ir.Ptr()),
	"zaco_object_set_f64":  sig(ir.Void(), ir.Ptr(), ir.Ptr(), ir.F64()),
	"zaco_object_set_i64":  sig(ir.Void(), ir.Ptr(), ir.Ptr(), ir.I64()),
	"zaco_object_set_str":  sig(ir.Void(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_object_set_ptr":  sig(ir.Void(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_object_get_f64":  sig(ir.F64(), ir.Ptr(), ir.Ptr()),
	"zaco_object_get_ptr":  sig(ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_obj_has_prop":    sig(ir.Bool(), ir.Ptr(), ir.Ptr()),
	"zaco_obj_keys":        sig(ir.Ptr(), ir.Ptr()),
	"zaco_instanceof":      sig(ir.Bool(), ir.Ptr(), ir.Ptr()),

	// Console
	"zaco_print_str":          sig(ir.Void(), ir.Ptr()),
	"zaco_print_i64":          sig(ir.Void(), ir.I64()),
	"zaco_print_f64":          sig(ir.Void(), ir.F64()),
	"zaco_print_bool":         sig(ir.Void(), ir.I64()),
	"zaco_println_str":        sig(ir.Void(), ir.Ptr()),
	"zaco_println_i64":        sig(ir.Void(), ir.I64()),
	"zaco_console_error_str":  sig(ir.Void(), ir.Ptr()),
	"zaco_console_error_i64":  sig(ir.Void(), ir.I64()),
	"zaco_console_error_f64":  sig(ir.Void(), ir.F64()),
	"zaco_console_error_bool": sig(ir.Void(), ir.I64()),
	"zaco_console_errorln":    sig(ir.Void()),
	"zaco_console_warn_str":   sig(ir.Void(), ir.Ptr()),
	"zaco_console_warn_i64":   sig(ir.Void(), ir.I64()),
	"zaco_console_warn_f64":   sig(ir.Void(), ir.F64()),
	"zaco_console_warn_bool":  sig(ir.Void(), ir.I64()),
	"zaco_console_warnln":     sig(ir.Void()),
	"zaco_console_debug_str":  sig(ir.Void(), ir.Ptr()),
	"zaco_console_debug_i64":  sig(ir.Void(), ir.I64()),
	"zaco_console_debug_f64":  sig(ir.Void(), ir.F64()),
	"zaco_console_debug_bool": sig(ir.Void(), ir.I64()),
	"zaco_console_debugln":    sig(ir.Void()),

	// Math
	"zaco_math_floor":  sig(ir.F64(), ir.F64()),
	"zaco_math_ceil":   sig(ir.F64(), ir.F64()),
	"zaco_math_round":  sig(ir.F64(), ir.F64()),
	"zaco_math_abs":    sig(ir.F64(), ir.F64()),
	"zaco_math_sqrt":   sig(ir.F64(), ir.F64()),
	"zaco_math_pow":    sig(ir.F64(), ir.F64(), ir.F64()),
	"zaco_math_sin":    sig(ir.F64(), ir.F64()),
	"zaco_math_cos":    sig(ir.F64(), ir.F64()),
	"zaco_math_tan":    sig(ir.F64(), ir.F64()),
	"zaco_math_log":    sig(ir.F64(), ir.F64()),
	"zaco_math_log2":   sig(ir.F64(), ir.F64()),
	"zaco_math_log10":  sig(ir.F64(), ir.F64()),
	"zaco_math_random": sig(ir.F64()),
	"zaco_math_min":    sig(ir.F64(), ir.F64(), ir.F64()),
	"zaco_math_max":    sig(ir.F64(), ir.F64(), ir.F64()),
	"zaco_math_trunc":  sig(ir.I64(), ir.F64()), // the runtime truncates to an integer return
	"zaco_math_pi":     sig(ir.F64()),
	"zaco_math_e":      sig(ir.F64()),

	// JSON
	"zaco_json_parse":     sig(ir.Ptr(), ir.Ptr()),
	"zaco_json_stringify": sig(ir.Str(), ir.Ptr()),

	// Filesystem
	"zaco_fs_read_file":      sig(ir.Promise(ir.Str()), ir.Ptr()),
	"zaco_fs_read_file_sync": sig(ir.Str(), ir.Ptr()),
	"zaco_fs_write_file_sync": sig(ir.Void(), ir.Ptr(), ir.Ptr()),
	"zaco_fs_exists_sync":    sig(ir.Bool(), ir.Ptr()),
	"zaco_fs_mkdir_sync":     sig(ir.I64(), ir.Ptr()),
	"zaco_fs_rmdir_sync":     sig(ir.I64(), ir.Ptr()),
	"zaco_fs_unlink_sync":    sig(ir.I64(), ir.Ptr()),
	"zaco_fs_readdir_sync":   sig(ir.Ptr(), ir.Ptr()),
	"zaco_fs_stat_size":      sig(ir.I64(), ir.Ptr()),
	"zaco_fs_stat_is_file":   sig(ir.Bool(), ir.Ptr()),
	"zaco_fs_stat_is_dir":    sig(ir.Bool(), ir.Ptr()),

	// Path
	"zaco_path_join":        sig(ir.Str(), ir.Ptr()),
	"zaco_path_resolve":     sig(ir.Str(), ir.Ptr()),
	"zaco_path_dirname":     sig(ir.Str(), ir.Ptr()),
	"zaco_path_basename":    sig(ir.Str(), ir.Ptr()),
	"zaco_path_extname":     sig(ir.Str(), ir.Ptr()),
	"zaco_path_is_absolute": sig(ir.Bool(), ir.Ptr()),
	"zaco_path_normalize":   sig(ir.Str(), ir.Ptr()),
	"zaco_path_sep":         sig(ir.Str()),

	// Process
	"zaco_process_exit":      sig(ir.Void(), ir.I64()),
	"zaco_process_cwd":       sig(ir.Str()),
	"zaco_process_env_get":   sig(ir.Str(), ir.Ptr()),
	"zaco_process_pid":       sig(ir.I64()),
	"zaco_process_platform":  sig(ir.Str()),
	"zaco_process_arch":      sig(ir.Str()),
	"zaco_process_argv":      sig(ir.Ptr()),

	// OS
	"zaco_os_platform": sig(ir.Str()),
	"zaco_os_arch":     sig(ir.Str()),
	"zaco_os_homedir":  sig(ir.Str()),
	"zaco_os_tmpdir":   sig(ir.Str()),
	"zaco_os_hostname": sig(ir.Str()),
	"zaco_os_eol":      sig(ir.Str()),
	"zaco_os_cpus":     sig(ir.I64()),
	"zaco_os_totalmem": sig(ir.I64()),

	// HTTP
	"zaco_http_get":    sig(ir.Promise(ir.Ptr()), ir.Ptr()),
	"zaco_http_post":   sig(ir.Promise(ir.Ptr()), ir.Ptr(), ir.Ptr()),
	"zaco_http_put":    sig(ir.Promise(ir.Ptr()), ir.Ptr(), ir.Ptr()),
	"zaco_http_delete": sig(ir.Promise(ir.Ptr()), ir.Ptr()),

	// Timers
	"zaco_set_timeout":    sig(ir.I64(), ir.Ptr(), ir.I64()),
	"zaco_clear_timeout":  sig(ir.Void(), ir.I64()),
	"zaco_set_interval":   sig(ir.I64(), ir.Ptr(), ir.I64()),
	"zaco_clear_interval": sig(ir.Void(), ir.I64()),

	// Exceptions
	"zaco_try_push":    sig(ir.I64()), // 0 on initial call, 1 on longjmp from zaco_throw
	"zaco_try_pop":     sig(ir.Void()),
	"zaco_throw":       sig(ir.Void(), ir.Ptr()),
	"zaco_get_error":   sig(ir.Ptr()),
	"zaco_clear_error": sig(ir.Void()),

	// Boxes (captured-mutable indirection)
	"zaco_box_new": sig(ir.Ptr(), ir.Ptr()),
	"zaco_box_get": sig(ir.Ptr(), ir.Ptr()),
	"zaco_box_set": sig(ir.Void(), ir.Ptr(), ir.Ptr()),

	// Generator protocol
	"zaco_generator_new":       sig(ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_generator_set_value": sig(ir.Void(), ir.Ptr(), ir.Ptr()),
	"zaco_generator_set_done":  sig(ir.Void(), ir.Ptr()),

	// Promise executor
	"zaco_promise_new":     sig(ir.Ptr()),
	"zaco_promise_resolve": sig(ir.Void(), ir.Ptr(), ir.Ptr()),
	"zaco_promise_then":    sig(ir.Ptr(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_promise_catch":   sig(ir.Ptr(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_promise_finally": sig(ir.Ptr(), ir.Ptr(), ir.Ptr(), ir.Ptr()),
	"zaco_async_block_on":  sig(ir.Ptr(), ir.Ptr()),

	// Global number helpers
	"zaco_parse_int":   sig(ir.F64(), ir.Ptr()),
	"zaco_parse_float": sig(ir.F64(), ir.Ptr()),
	"zaco_is_nan":      sig(ir.Bool(), ir.F64()),
	"zaco_is_finite":   sig(ir.Bool(), ir.F64()),

	// Lifecycle
	"zaco_runtime_init":     sig(ir.Void()),
	"zaco_runtime_shutdown": sig(ir.Void()),
}

// Lookup returns the signature for a runtime symbol name and whether
// it exists, in O(1) (spec §4.1).
func Lookup(name string) (Signature, bool) {
	s, ok := table[name]
	return s, ok
}

// IsKnown reports whether name is a declared runtime ABI symbol. It
// is the resolver callback ir.Verify expects.
func IsKnown(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns every declared symbol name, sorted by the caller if
// order matters — used by the CLI's `abi` introspection subcommand.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	return names
}
