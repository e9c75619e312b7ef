//go:build !unix

package power

import "errors"

func restartSelf() error {
	return errors.New("restart is only supported on unix hosts")
}
