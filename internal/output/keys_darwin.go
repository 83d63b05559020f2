//go:build darwin

package output

import "github.com/micmonay/keybd_event"

const keyBackspace = keybd_event.VK_DELETE
