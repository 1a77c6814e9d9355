// Package pipeline holds the Markdown stages that run after embedding.
//
// The HTML preview is built in order:
//   - Markdown to HTML conversion via Goldmark
//   - image classification (embedded, remote, local) and file:// rewriting
//   - CSS injection
//   - run summary injection
//
// MoveDataImages is a separate Markdown pass that moves inline data URLs
// into reference definitions at the end of a document.
package pipeline
