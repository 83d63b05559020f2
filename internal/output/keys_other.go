//go:build !linux && !darwin

package output

const keyBackspace = -1
