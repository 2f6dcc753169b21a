package usecase

// The repository package links the sqlite-vec cgo extension, whose C code
// needs the sqlite3 symbols that mattn/go-sqlite3 compiles in. The main
// binary gets them via the gorm sqlite driver; the test binary must link
// them explicitly or the build fails at the ld step.
import _ "github.com/mattn/go-sqlite3"
