//go:build linux

package output

import "github.com/micmonay/keybd_event"

const keyBackspace = keybd_event.VK_BACKSPACE
