/*
Package pipeline runs sequences of pipe operators over a shared working memory.

A Sequence seeds a fresh WorkingMemory from the run inputs, then runs its steps strictly in order.
Each step reads its inputs through optional local-to-source bindings, and its result is stored
under the step's result name, where later steps can read it. The main_stuff alias always points
at the most recent result. The first failure stops the run; later steps never run.

Every run moves through a validated state machine

	Pending(0) -> Running(0) -> Pending(1) -> ... -> Running(n-1) -> Completed
	                        \-> Failed(i)

and every transition is reported to the sequence's observers.
*/
package pipeline
