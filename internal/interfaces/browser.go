package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrTargetNotFound is returned by bounded waits when the target element does
// not appear within the timeout. It is an expected signal (end of pagination,
// absent optional control), not a driver fault.
var ErrTargetNotFound = errors.New("target element not found")

// BrowserSession abstracts the interactive browser driver. Bounded waits
// return ErrTargetNotFound when the target never appears; any other error is
// a transport or session level failure and may be retried by the caller.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	ClickLinkText(ctx context.Context, text string) error
	ClickXPath(ctx context.Context, xpath string) error
	WaitClickableLinkText(ctx context.Context, text string, timeout time.Duration) error
	WaitVisibleClass(ctx context.Context, class string, timeout time.Duration) error
	ScrollTop(ctx context.Context) error
	CurrentDocument(ctx context.Context) (string, error)
	Close() error
}
