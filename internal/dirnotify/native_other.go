//go:build !windows

package dirnotify

func newNativeChannel(int) (Channel, error) {
	return nil, ErrNativeUnsupported
}
