package walk

// HashState is the per-path outcome recorded on a HashItem. After a Hash
// run, every item is either HashOk or HashErr.
type HashState int

const (
	// Unhashed means the path was collected but Hash has not run yet (or
	// has not reached it, e.g. because an earlier StopOnErrors abort cut
	// the run short).
	Unhashed HashState = iota
	// HashOk means the path was read and digested successfully.
	HashOk
	// HashErr means hashing the path failed (vanished between collect and
	// hash, unreadable, or a Reader/Digest failure) and the error was
	// retained per the configured Tolerance rather than aborting the run.
	HashErr
)

// String implements fmt.Stringer.
func (s HashState) String() string {
	switch s {
	case Unhashed:
		return "unhashed"
	case HashOk:
		return "hash-ok"
	case HashErr:
		return "hash-err"
	default:
		return "unknown"
	}
}

// HashItem is one collected path's hashing outcome, exposed by
// Walker.Items after Hash has run. Hash is nil unless State is HashOk; Err
// is nil unless State is HashErr.
type HashItem struct {
	Path  string
	State HashState
	Hash  []byte
	Err   error
}
