package transfer

import (
	"sync/atomic"
)

type Status int

const (
	/** @brief Bytes are still moving. */
	StatusDownloading Status = iota
	/** @brief The file is complete and verified on disk. */
	StatusSucceeded
	/** @brief The transfer failed; Error() describes why. */
	StatusFailed
)

// Service moves bundle bytes from a remote location to local storage.
// Downloads run on their own goroutines, but their completion becomes
// visible to callers only through Tick, which must be invoked once per
// scheduling pass by the same driver that updates loadables. Everything
// a caller observes on a Handle is therefore single-threaded.
type Service interface {
	// DownloadAsync begins fetching url into destinationPath. The
	// completion callback fires from Tick, after the handle reached a
	// terminal status. expectedSize and expectedHash of zero/empty skip
	// the respective verification.
	DownloadAsync(url, destinationPath string, expectedSize int64, expectedHash string, onComplete func(*Handle)) *Handle
	// Tick promotes finished transfers to their terminal status and
	// fires completion callbacks.
	Tick()
}

// Handle is the caller-visible view of one transfer. Progress counters
// are updated by the transfer goroutine; the terminal status is only
// ever set from Tick.
type Handle struct {
	URL             string
	DestinationPath string

	downloaded atomic.Int64
	total      atomic.Int64
	done       atomic.Bool

	// written by the transfer goroutine before done is set, read only
	// after done observes true
	transferErr error

	onComplete func(*Handle)
	status     Status
	errMsg     string
}

func (h *Handle) DownloadedBytes() int64 {
	return h.downloaded.Load()
}

func (h *Handle) TotalSize() int64 {
	return h.total.Load()
}

func (h *Handle) Status() Status {
	return h.status
}

// Error returns the failure message, empty unless StatusFailed.
func (h *Handle) Error() string {
	return h.errMsg
}

// Fraction returns downloaded/total in [0,1]; zero while the total is
// still unknown.
func (h *Handle) Fraction() float64 {
	total := h.total.Load()
	if total <= 0 {
		return 0
	}
	f := float64(h.downloaded.Load()) / float64(total)
	if f > 1 {
		f = 1
	}
	return f
}

// promote moves the handle to its terminal status. Called from Tick only.
func (h *Handle) promote() {
	if h.transferErr != nil {
		h.status = StatusFailed
		h.errMsg = h.transferErr.Error()
	} else {
		h.status = StatusSucceeded
	}
	if h.onComplete != nil {
		cb := h.onComplete
		h.onComplete = nil
		cb(h)
	}
}
