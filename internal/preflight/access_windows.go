//go:build windows

package preflight

import (
	"golang.org/x/sys/windows"
)

func checkAccess(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(
		p,
		windows.FILE_LIST_DIRECTORY|windows.FILE_WRITE_DATA, // FILE_WRITE_DATA == FILE_ADD_FILE (0x2) for directories
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return err
	}
	return windows.CloseHandle(h)
}
