// Package image synthesizes an illustration for a prompt by walking an ordered
// chain of strategies: two asynchronous generative providers driven through the
// job poller, then a synchronous image search. The first acceptable URL wins;
// when nothing qualifies the result is empty, never an error.
package image
