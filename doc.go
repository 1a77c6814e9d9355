// Package mdembed makes Markdown documents self-contained by replacing image
// references with inline base64 data URLs.
//
// # Quick Start
//
//	emb, err := mdembed.NewEmbedder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := emb.Embed(ctx, mdembed.Input{
//	    Markdown: string(content),
//	    BasePath: filepath.Dir(path), // for relative image paths
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.md", []byte(result.Markdown), 0644)
//
// # Recognized References
//
//	![alt](target "title")        standard image
//	[![alt](target)](link)        image wrapped in a link; the link is kept
//	![[target]] ![[target|300]]   wiki-style embed, with optional size or alias
//
// With WithYarleMode, standard images may also carry the size annotations
// written by Evernote exporters: ![alt|300x200](target).
//
// References inside fenced code blocks and code spans are left alone, as is
// every byte of the document outside the references that get embedded.
//
// # Embedding
//
// Each target is resolved as a local file (relative to the base path) or
// downloaded over HTTP(S), then re-encoded as JPEG with a quality chosen
// from the original size and the quality scale (1 best, 9 smallest; see
// DefaultQualityTable). Small files, vector and animated images, and media
// types listed with WithPassthroughTypes keep their original bytes.
//
// An image that cannot be embedded is never an error: the reference stays
// as written and Result.Log records why (StatusNotFound, StatusTooLarge,
// and so on). Embed only fails on cancellation or internal faults.
//
// Running Embed on its own output changes nothing: data URLs are reported
// as StatusAlreadyEmbedded.
//
// # Concurrency
//
// An Embedder is safe for concurrent use. WithWorkers fetches and encodes
// the images of one document in parallel; output order never depends on it.
// Each distinct target is fetched once per document.
//
// # Preview and Reports
//
// Preview renders a document as a standalone HTML page with a built-in or
// custom style and an optional run summary. WriteSummary and Report give
// human and YAML accounts of a run. MoveDataImages tidies a document by
// moving data URLs into reference definitions at its end.
package mdembed
