package pipeline_test

import (
	"github.com/mcroute/mcroute/core/testenv"
)

var makeAR = testenv.MakeAR
