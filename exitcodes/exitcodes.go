// Package exitcodes defines the exit codes used by ome-zarr-conformance.
package exitcodes

// Exit code constants reported by the tool:
//
//   - Success (0): the run completed and no error verdicts occurred. Fail
//     verdicts are the expected output of a non-conformant implementation
//     and do not affect the exit code.
//   - RuntimeErr (1): a tooling failure — invalid usage, corpus fetch or
//     parse failure, cache corruption that a refetch could not repair.
//   - CaseErrors (2): the run completed but one or more cases produced an
//     error verdict (launch failure, timeout, or protocol violation by the
//     program under test).
//   - Interrupted (130): the run was cancelled by SIGINT/SIGTERM before all
//     cases completed.
const (
	Success     = 0
	RuntimeErr  = 1
	CaseErrors  = 2
	Interrupted = 130
)
