// Package all imports every shell command package.
package all

import (
	_ "github.com/robotalks/sensorlink/pkg/cli/cmds/link"
)
