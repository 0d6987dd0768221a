package engine

// UnknownPos marks a cursor position that must not be trusted.
const UnknownPos = ^uint64(0)

// File is an open transfer target. The open/close lifecycle belongs to
// the caller, the engines only use the descriptor.
type File struct {
	Fd   int
	Path string

	// where the cursor sits after the last completed sequential transfer.
	// only the cursor based engine consults it, and only the caller moves it
	LastPos uint64
}

func NewFile(fd int, path string) *File {
	return &File{
		Fd:      fd,
		Path:    path,
		LastPos: 0,
	}
}

// Advance records the cursor position implied by a completed request.
func (f *File) Advance(req *Request) {
	if req.Dir == DirSync {
		return
	}

	// nothing moved: either the cursor was never repositioned for this
	// request or an earlier one in the batch already came up short
	if req.Err() != nil || (req.Transferred() == 0 && len(req.Buf) > 0) {
		f.LastPos = UnknownPos
		return
	}

	f.LastPos = req.Off + uint64(req.Transferred())
}
