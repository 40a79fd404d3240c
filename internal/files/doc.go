// Package files provides the file system operations used by the artifact
// writers.
//
// Manager.WriteAtomic is the single write path for charts, workbooks and
// documents: content is streamed into a temporary file next to the target and
// renamed into place, so a crash never leaves a truncated artifact behind.
// A missing target directory is reported as an OUTPUT_PATH error and is never
// created implicitly.
//
// Example usage:
//
//	manager := files.NewManager(logger)
//	err := manager.WriteAtomic("output/relatorio.pdf", func(w io.Writer) error {
//	    return pdf.Output(w)
//	})
package files
