package source

// FileID identifies the source file a span belongs to. The parser assigns them;
// the semantic core only compares them.
type FileID uint32 // просто ID источника

// NoFileID marks spans synthesized by the core itself.
const NoFileID FileID = 0
