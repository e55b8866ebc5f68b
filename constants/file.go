package constants

import "strings"

// Per-file and per-batch limits for document intake.
const (
	MaxFileSize  = 10 * 1024 * 1024 // 10 MiB per file
	MaxBatchSize = 50 * 1024 * 1024 // 50 MiB combined
	MaxFiles     = 5
)

// FormatClass groups extensions by the extraction strategy they get.
type FormatClass string

const (
	PlainText  FormatClass = "TEXT"    // txt, md
	Structured FormatClass = "JSON"    // json
	Tabular    FormatClass = "CSV"     // csv
	Markup     FormatClass = "HTML"    // html, htm
	Office     FormatClass = "OFFICE"  // pdf + office binaries
	Unknown    FormatClass = "UNKNOWN" // anything else
)

// AllowedExtensions holds the intake allow-list, lowercased sans dot.
var AllowedExtensions = map[string]struct{}{
	"pdf": {}, "docx": {}, "pptx": {}, "xlsx": {},
	"doc": {}, "ppt": {}, "xls": {},
	"txt": {}, "csv": {}, "md": {}, "json": {},
	"html": {}, "htm": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat classifies a normalized extension for the text extractor.
func MapExtToFormat(ext string) FormatClass {
	switch NormalizeExt(ext) {
	case "txt", "md":
		return PlainText
	case "json":
		return Structured
	case "csv":
		return Tabular
	case "html", "htm":
		return Markup
	case "pdf", "docx", "pptx", "xlsx", "doc", "ppt", "xls":
		return Office
	default:
		return Unknown
	}
}
