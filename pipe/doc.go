// Package pipe defines the operators a pipeline step can run.
//
// A FunctionOperator calls a computation from the operations registry by name, normalizes what it
// returns into a content value and checks it against the declared output. An LLMOperator renders
// a prompt from working memory and delegates generation to an injected Generator. Both only read
// working memory; storing the result is left to the pipeline.
package pipe
