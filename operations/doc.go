/*
Package operations provides the registry of computations that function-backed pipes call, and the
machinery to invoke them.

# Core Components

Registry:
  - Admits only eligible computations: func([ctx,] *memory.WorkingMemory) (R, error)
  - Rejects duplicates unless the registration explicitly replaces
  - Discovers computations in bulk from a Source, skipping ineligible ones

Invoker:
  - Runs cooperative computations directly with the caller's context
  - Runs blocking computations on a bounded worker pool

Executor:
  - Executes a registered computation with an optional retry policy
  - Never retries cancellation or errors marked with NewUnrecoverableError

Reporter:
  - Records step and run executions with their timings and errors

# Basic Usage

	reg := operations.NewOperationRegistry()
	reg.MustRegister("first_words", textops.FirstWords,
		operations.WithDescription("First words of a text"))

	b := operations.NewBundle(lggr, operations.NewMemoryReporter(),
		operations.WithOperationRegistry(reg))

	entry, err := reg.RequireLookup("first_words")
	result, err := operations.Execute(ctx, b, entry, wm, operations.WithRetry())
*/
package operations
