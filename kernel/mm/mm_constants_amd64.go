package mm

const (
	// PageShift is log2(PageSize); shifting an address right by PageShift
	// yields its page/frame number.
	PageShift = uintptr(12)

	// PageSize is the size of a 4K page in bytes.
	PageSize = uintptr(1 << PageShift)
)
