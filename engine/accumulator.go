package engine

// slot pairs a held request with the buffer it contributes to the
// scatter/gather vector, so both always share one index.
type slot struct {
	req *Request
	iov []byte
}

// Accumulator holds one run of contiguous requests that target the same
// file in the same direction. It's not thread safe.
type Accumulator struct {
	slots []slot

	// scratch vector handed to readv(2)/writev(2)
	vec [][]byte

	queuedBytes uint64

	// contiguity key of the run
	nextOff uint64
	file    *File
	dir     Direction
}

func NewAccumulator(depth int) *Accumulator {
	if depth <= 0 {
		depth = 1
	}

	return &Accumulator{
		slots:   make([]slot, 0, depth),
		vec:     make([][]byte, 0, depth),
		nextOff: UnknownPos,
	}
}

func (a *Accumulator) Len() int {
	return len(a.slots)
}

func (a *Accumulator) Depth() int {
	return cap(a.slots)
}

func (a *Accumulator) Empty() bool {
	return len(a.slots) == 0
}

func (a *Accumulator) Full() bool {
	return len(a.slots) == cap(a.slots)
}

func (a *Accumulator) QueuedBytes() uint64 {
	return a.queuedBytes
}

func (a *Accumulator) File() *File {
	return a.file
}

func (a *Accumulator) Dir() Direction {
	return a.dir
}

// NextOff is the offset right after the last held request.
func (a *Accumulator) NextOff() uint64 {
	return a.nextOff
}

func (a *Accumulator) At(idx int) *Request {
	return a.slots[idx].req
}

// Contiguous reports whether req continues the held run. A sync barrier
// has no byte range and never does, neither does anything offered to an
// empty accumulator.
func (a *Accumulator) Contiguous(req *Request) bool {
	if a.Empty() || req.Dir == DirSync {
		return false
	}

	return req.Off == a.nextOff && req.File == a.file && req.Dir == a.dir
}

// Append takes req at the tail. The caller decides whether it may.
func (a *Accumulator) Append(req *Request) {
	a.slots = append(a.slots, slot{req: req, iov: req.Buf})

	size := uint64(len(req.Buf))
	a.queuedBytes += size
	a.nextOff = req.Off + size
	a.file = req.File
	a.dir = req.Dir
}

// Iovecs builds the scatter/gather vector in request order.
func (a *Accumulator) Iovecs() [][]byte {
	a.vec = a.vec[:0]
	for idx := range a.slots {
		a.vec = append(a.vec, a.slots[idx].iov)
	}
	return a.vec
}

// Distribute spreads n transferred bytes over the held requests from
// left to right. This relies on readv(2)/writev(2) filling the vector in
// order: every request before the boundary is complete, the one that
// straddles it keeps the leftover as residual, the rest keep everything.
func (a *Accumulator) Distribute(n int) {
	left := n
	for idx := range a.slots {
		this := min(left, len(a.slots[idx].iov))
		a.slots[idx].req.complete(this)
		left -= this
	}
}

// Fail attaches the same failure to every held request.
func (a *Accumulator) Fail(cause, err error) {
	for idx := range a.slots {
		a.slots[idx].req.fail(cause, err)
	}
}

// Drain appends the held requests to dst in order and resets.
func (a *Accumulator) Drain(dst []*Request) []*Request {
	for idx := range a.slots {
		dst = append(dst, a.slots[idx].req)
	}
	a.Reset()
	return dst
}

func (a *Accumulator) Reset() {
	// drop references so finished requests can be collected
	for idx := range a.slots {
		a.slots[idx] = slot{}
	}
	for idx := range a.vec {
		a.vec[idx] = nil
	}

	a.slots = a.slots[:0]
	a.vec = a.vec[:0]
	a.queuedBytes = 0
	a.nextOff = UnknownPos
	a.file = nil
	a.dir = DirRead
}
