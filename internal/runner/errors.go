package runner

import "errors"

var (
	// ErrToolInvocation reports an exit status outside the tool's
	// findings-present set, or a failure to start the subprocess at all.
	ErrToolInvocation = errors.New("lint tool invocation failed")

	// ErrTimeout reports that the subprocess exceeded its allotted time
	// and was killed. The pass yields zero diagnostics.
	ErrTimeout = errors.New("lint tool timed out")

	// ErrUnsavedFile reports a lint request for a buffer that has no
	// on-disk directory to anchor the pass in.
	ErrUnsavedFile = errors.New("skipped linting of unsaved file")

	// ErrFixUnsupported reports a fix request against a tool that has no
	// fix invocation.
	ErrFixUnsupported = errors.New("tool cannot apply fixes")
)
