// Package report renders validation runs.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the console progress lines and test report
//   - JSONWriter: the persisted results document (see SaveFile)
//   - MarkdownWriter: a shareable summary with a mermaid chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
